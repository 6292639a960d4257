package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/zimwip/vlcbridge"
	"golang.org/x/sync/errgroup"
)

type probeOptions struct {
	Timeout time.Duration
	Network bool
	Jobs    int
	Poll    time.Duration
}

func (o probeOptions) flags() vlcbridge.ParseFlag {
	flags := vlcbridge.ParseLocal | vlcbridge.FetchLocal
	if o.Network {
		flags |= vlcbridge.ParseNetwork | vlcbridge.FetchNetwork
	}
	return flags
}

var metaKeys = []struct {
	key  vlcbridge.MetaKey
	name string
}{
	{vlcbridge.MetaTitle, "title"},
	{vlcbridge.MetaArtist, "artist"},
	{vlcbridge.MetaAlbum, "album"},
	{vlcbridge.MetaDate, "date"},
	{vlcbridge.MetaGenre, "genre"},
	{vlcbridge.MetaDescription, "description"},
}

type metaField struct {
	Name  string
	Value string
}

type report struct {
	Target   string
	Status   vlcbridge.ParsedStatus
	Duration time.Duration
	Meta     []metaField
	Tracks   []vlcbridge.Track
	Err      error
}

var trackTypes = []vlcbridge.TrackType{
	vlcbridge.TrackVideo,
	vlcbridge.TrackAudio,
	vlcbridge.TrackText,
}

type prober struct {
	inst *vlcbridge.Instance
	opts probeOptions
	log  *logrus.Entry
}

// run parses every target concurrently, at most opts.Jobs at a time.
// Per target failures are reported, not returned.
func (p *prober) run(ctx context.Context, targets []string) ([]report, error) {
	reports := make([]report, len(targets))

	pumpCtx, stopPump := context.WithCancel(ctx)
	defer stopPump()
	go p.pump(pumpCtx)

	g, ctx := errgroup.WithContext(ctx)
	if p.opts.Jobs > 0 {
		g.SetLimit(p.opts.Jobs)
	}

	for i, target := range targets {
		g.Go(func() error {
			reports[i] = p.probe(ctx, target)
			return ctx.Err()
		})
	}

	err := g.Wait()
	return reports, err
}

// pump runs instance handlers until ctx ends.
func (p *prober) pump(ctx context.Context) {
	ticker := time.NewTicker(p.opts.Poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.inst.Update()
		}
	}
}

func (p *prober) open(target string) (*vlcbridge.Media, error) {
	if strings.Contains(target, "://") {
		return p.inst.NewMediaFromLocation(target)
	}
	return p.inst.NewFileMedia(target)
}

func (p *prober) probe(ctx context.Context, target string) report {
	r := report{Target: target}
	log := p.log.WithField("target", target)

	m, err := p.open(target)
	if err != nil {
		r.Err = err
		return r
	}
	defer m.Release()

	done := make(chan vlcbridge.ParsedStatus, 1)
	m.OnParsedChanged(func(status vlcbridge.ParsedStatus) {
		if status == vlcbridge.ParsedPending {
			return
		}
		select {
		case done <- status:
		default:
		}
	})

	if err := m.ParseRequest(p.opts.flags(), p.opts.Timeout); err != nil {
		r.Err = err
		return r
	}

	select {
	case r.Status = <-done:
	case <-ctx.Done():
		m.ParseStop()
		r.Err = ctx.Err()
		return r
	}

	log.WithField("status", r.Status).Debug("parsed")

	if r.Status != vlcbridge.ParsedDone {
		r.Err = fmt.Errorf("parse %s", r.Status)
		return r
	}

	r.Duration = m.Duration()

	for _, k := range metaKeys {
		if v, ok := m.Meta(k.key).Get(); ok && v != "" {
			r.Meta = append(r.Meta, metaField{Name: k.name, Value: v})
		}
	}

	for _, typ := range trackTypes {
		tl := m.TrackList(typ)
		r.Tracks = append(r.Tracks, tl.All()...)
		tl.Close()
	}

	return r
}

// fourCC renders a codec code the way libVLC stores it.
func fourCC(code uint32) string {
	if code == 0 {
		return "-"
	}

	b := []byte{byte(code), byte(code >> 8), byte(code >> 16), byte(code >> 24)}
	return strings.TrimRight(string(b), " \x00")
}

func printReport(w io.Writer, r report) {
	fmt.Fprintln(w, r.Target)

	if r.Err != nil {
		fmt.Fprintf(w, "  error:    %v\n", r.Err)
		return
	}

	fmt.Fprintf(w, "  status:   %s\n", r.Status)
	fmt.Fprintf(w, "  duration: %s\n", r.Duration)

	for _, f := range r.Meta {
		fmt.Fprintf(w, "  %-9s %s\n", f.Name+":", f.Value)
	}

	if len(r.Tracks) == 0 {
		return
	}

	fmt.Fprintln(w, "  tracks:")
	for _, t := range r.Tracks {
		line := fmt.Sprintf("    %-5s %-4s %-3s %s", t.Type, fourCC(t.Codec), lo.Ternary(t.Language == "", "-", t.Language), t.Name)
		if t.Selected {
			line += " [selected]"
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}
