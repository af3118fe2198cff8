package importer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/walletrecon/internal/model"
)

// Batch is one channel's parsed statement.
type Batch struct {
	Channel Channel
	Path    string
	Records []*model.Record
}

// ParseAll parses every discovered statement concurrently and tags each
// record with its channel. Batches come back in channel order. The first
// parse error cancels the rest and is returned.
func ParseAll(ctx context.Context, reg *Registry, channels []Channel, files map[string]string) ([]Batch, error) {
	var jobs []Batch
	for _, ch := range channels {
		path, ok := files[ch.ID]
		if !ok {
			continue
		}
		if reg.Get(ch.ID) == nil {
			return nil, fmt.Errorf("no parser registered for channel %q", ch.ID)
		}
		jobs = append(jobs, Batch{Channel: ch, Path: path})
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := range jobs {
		job := &jobs[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := ParseFile(reg.Get(job.Channel.ID), job.Path)
			if err != nil {
				return err
			}
			for _, r := range records {
				r.Meta.Channel = job.Channel.ID
				r.Meta.ChannelLabel = job.Channel.Label
				r.Meta.ChannelKind = job.Channel.Kind
			}
			job.Records = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Flatten concatenates batch records in order.
func Flatten(batches []Batch) []*model.Record {
	var out []*model.Record
	for _, b := range batches {
		out = append(out, b.Records...)
	}
	return out
}
