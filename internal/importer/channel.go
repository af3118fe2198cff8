package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cleared-dev/walletrecon/internal/model"
)

// Channel describes one statement source.
type Channel struct {
	ID       string
	Label    string
	Kind     model.ChannelKind
	Patterns []string
}

// DefaultChannels lists the built-in channels in processing order. Each ID
// names a parser format in DefaultRegistry.
var DefaultChannels = []Channel{
	{ID: "wechat", Label: "微信支付", Kind: model.ChannelWallet, Patterns: []string{"微信支付账单流水", "微信支付账单", "wechat"}},
	{ID: "alipay", Label: "支付宝", Kind: model.ChannelWallet, Patterns: []string{"支付宝交易明细", "alipay"}},
	{ID: "citic", Label: "中信银行信用卡", Kind: model.ChannelCard, Patterns: []string{"中信银行信用卡", "citic"}},
	{ID: "cmb", Label: "招商银行信用卡", Kind: model.ChannelCard, Patterns: []string{"招商银行信用卡", "cmb"}},
	{ID: "cmb-debit", Label: "招商银行储蓄卡", Kind: model.ChannelBank, Patterns: []string{"招商银行交易流水", "招商银行储蓄卡"}},
	{ID: "webank", Label: "微众银行", Kind: model.ChannelBank, Patterns: []string{"微众银行", "webank"}},
}

// Discover finds one statement per channel in dir: for each channel, the
// first pattern with a matching regular file wins, and among its matches the
// first in lexical order. Channels without a file are absent from the result.
func Discover(dir string, channels []Channel) (map[string]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", dir)
	}

	found := make(map[string]string)
	for _, ch := range channels {
		path, err := firstMatch(dir, ch.Patterns)
		if err != nil {
			return nil, fmt.Errorf("discovering %s statement: %w", ch.ID, err)
		}
		if path != "" {
			found[ch.ID] = path
		}
	}
	return found, nil
}

func firstMatch(dir string, patterns []string) (string, error) {
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+pattern+"*"))
		if err != nil {
			return "", err
		}
		sort.Strings(matches)
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return "", err
			}
			if info.Mode().IsRegular() {
				return m, nil
			}
		}
	}
	return "", nil
}
