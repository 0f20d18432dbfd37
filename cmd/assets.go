package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/alignx/internal/formatter"
	"github.com/desertthunder/alignx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AssetsLoad fetches the manifest and reports how many entries survived filtering.
func (r *Runner) AssetsLoad(ctx context.Context, cmd *cli.Command) error {
	if r.assets == nil {
		return fmt.Errorf("%w: set assets.manifest in config.toml", shared.ErrMissingConfig)
	}

	progress, stop := r.progress()
	n, err := r.workflow().LoadAssets(ctx, progress)
	stop()
	if err != nil {
		return err
	}
	return r.writePlain("✓ %d playable assets\n", n)
}

// AssetsList prints the playable assets in manifest order.
func (r *Runner) AssetsList(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.loadAssets(ctx); err != nil {
		return err
	}

	p := r.cache.AssetList(cmd.String("selected"))
	if cmd.Bool("json") {
		return r.writeJSON(p.Items, true)
	}
	if p.Empty() {
		return r.writePlain("No playable assets\n")
	}

	r.writePlainHeader(fmt.Sprintf("Demo Assets (%d)", len(p.Items)))
	for i, a := range p.Items {
		marker := " "
		if i == p.ActiveIndex {
			marker = ">"
		}
		r.writePlain("%s %-40s %s\n", marker, formatter.AssetLabel(a), a.Src)
	}
	return nil
}

// AssetsRelated prints the alignments whose resolved audio file name equals the asset's.
func (r *Runner) AssetsRelated(ctx context.Context, cmd *cli.Command) error {
	src := strings.TrimSpace(cmd.StringArg("src"))
	if src == "" {
		return fmt.Errorf("%w: asset src", shared.ErrMissingArgument)
	}

	if _, err := r.loadAssets(ctx); err != nil {
		return err
	}

	asset, ok := r.cache.Asset(src)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrAssetNotFound, src)
	}

	p := r.cache.AlignmentsForAsset(src, "")
	if cmd.Bool("json") {
		return r.writeJSON(alignmentViews(p.Items), true)
	}

	r.writePlainHeader(formatter.AssetLabel(asset))
	if p.Empty() {
		return r.writePlain("No alignments for this asset\n")
	}
	for _, task := range p.Items {
		r.writePlain("  %s\n", formatter.AlignmentLabel(task))
	}
	return nil
}
