package build

import (
	"context"
	"fmt"

	"reel/internal/cache"
	"reel/internal/project"
)

// SegmentStatus classifies each stage of one segment against the cache.
type SegmentStatus struct {
	ID     string
	States map[cache.Stage]cache.State
}

// ProjectStatus is a dry-run view of the cache: what a build would reuse and
// what it would produce, without invoking any collaborator.
type ProjectStatus struct {
	Segments []SegmentStatus
	Export   cache.State
}

// Status inspects the cache for every stage of every segment. Stages whose
// key depends on narration audio that has not been synthesized yet report
// StateUnknown, because the key cannot be computed without running the
// synthesizer.
func (b *Builder) Status(ctx context.Context, p *project.Project) (*ProjectStatus, error) {
	k := keyer{p: p}
	status := &ProjectStatus{Segments: make([]SegmentStatus, len(p.Segments))}

	combineKeys := make([]string, len(p.Segments))
	allKnown := true

	for i := range p.Segments {
		seg := &p.Segments[i]
		states := make(map[cache.Stage]cache.State, len(cache.SegmentStages))
		status.Segments[i] = SegmentStatus{ID: seg.ID, States: states}

		narrate := seg.HasNarration() && p.Narration.Enabled()

		// Narration state and, when the duration is narration-derived,
		// the resolved duration for downstream keys.
		var (
			narrKey  string
			duration = seg.Duration
			known    = true
		)
		if narrate {
			narrKey = k.narrationKey(seg.Narration)
			state, err := b.store.StageState(ctx, seg.ID, cache.StageNarration, narrKey)
			if err != nil {
				return nil, err
			}
			states[cache.StageNarration] = state
			if seg.DurationDerived() {
				if state == cache.StateHit {
					rec, err := b.store.Lookup(ctx, seg.ID, cache.StageNarration, narrKey)
					if err != nil {
						return nil, err
					}
					if rec == nil {
						known = false
					} else {
						duration = p.Sync.PaddedDuration(rec.DurationSeconds)
					}
				} else {
					known = false
				}
			}
		} else {
			states[cache.StageNarration] = cache.StateSkipped
		}

		sourceKeys, sourceState, sourcesKnown, err := b.sourceStates(ctx, p, seg)
		if err != nil {
			return nil, err
		}
		states[cache.StageSource] = sourceState
		known = known && sourcesKnown

		if !known {
			states[cache.StageRender] = cache.StateUnknown
			states[cache.StageCombine] = cache.StateUnknown
			allKnown = false
			continue
		}

		renderKey := k.renderKey(seg, sourceKeys, duration, seg.DurationDerived() && narrate)
		renderState, err := b.store.StageState(ctx, seg.ID, cache.StageRender, renderKey)
		if err != nil {
			return nil, err
		}
		states[cache.StageRender] = renderState

		combineKey := k.combineKey(renderKey, narrKey)
		combineState, err := b.store.StageState(ctx, seg.ID, cache.StageCombine, combineKey)
		if err != nil {
			return nil, err
		}
		states[cache.StageCombine] = combineState
		combineKeys[i] = combineKey
	}

	if !allKnown {
		status.Export = cache.StateUnknown
		return status, nil
	}

	transitions := make([]string, 0, len(p.Segments))
	for i := 1; i < len(p.Segments); i++ {
		kind, dur := p.TransitionInto(i - 1)
		transitions = append(transitions, transitionDescriptor(kind, dur))
	}
	exportState, err := b.store.StageState(ctx, cache.ExportScope, cache.StageExport, k.exportKey(combineKeys, transitions))
	if err != nil {
		return nil, err
	}
	status.Export = exportState
	return status, nil
}

// sourceStates computes the source keys for a segment and the aggregate
// cache state of its source stage. Asset and placeholder sources have no
// cached artifact and report StateSkipped unless they cannot be resolved.
func (b *Builder) sourceStates(ctx context.Context, p *project.Project, seg *project.Segment) ([]string, cache.State, bool, error) {
	k := keyer{p: p}

	type scoped struct {
		scope string
		src   project.Source
	}
	var inputs []scoped
	switch seg.Kind {
	case project.KindTitle:
		return nil, cache.StateSkipped, true, nil
	case project.KindGrid:
		for i := range seg.Cells {
			inputs = append(inputs, scoped{scope: fmt.Sprintf("%s/cell-%d", seg.ID, i), src: seg.Cells[i].Source})
		}
	default:
		inputs = []scoped{{scope: seg.ID, src: seg.Source}}
	}

	keys := make([]string, 0, len(inputs))
	aggregate := cache.StateSkipped
	for _, in := range inputs {
		resolved, err := b.resolver.Resolve(in.src)
		if err != nil {
			// Unresolvable sources block key computation downstream.
			return nil, cache.StateUnknown, false, nil
		}
		key := k.sourceKey(resolved)
		keys = append(keys, key)

		if resolved.Type != project.SourceGenerator {
			continue
		}
		state, err := b.store.StageState(ctx, in.scope, cache.StageSource, key)
		if err != nil {
			return nil, cache.StateUnknown, false, err
		}
		aggregate = worseState(aggregate, state)
	}
	return keys, aggregate, true, nil
}

// worseState keeps the least satisfied of two states, so a grid's aggregate
// source state reflects its neediest cell.
func worseState(a, b cache.State) cache.State {
	rank := func(s cache.State) int {
		switch s {
		case cache.StateSkipped:
			return 0
		case cache.StateHit:
			return 1
		case cache.StateStale:
			return 2
		case cache.StateAbsent:
			return 3
		}
		return 4
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
