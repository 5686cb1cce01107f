package stitch

import (
	"fmt"
	"strings"

	"github.com/reelforge/reelforge/pkg/models"
)

// graphSpec parameterizes the filtergraph build.
type graphSpec struct {
	frameRate int
	introFade float64
	outroFade float64
}

// buildFilterGraph assembles the single ffmpeg filter_complex string for
// the whole composition. All clips are normalized to the target frame
// rate and the first clip's resolution; the intro fade-in, per-pair
// transitions, and outro fade-out are applied in one pass.
//
// Returns the graph plus the final video and audio output labels.
func buildFilterGraph(clips []clipInfo, transitions []models.TransitionKind,
	spec graphSpec) (graph, vOut, aOut string, err error) {

	if len(clips) == 0 {
		return "", "", "", fmt.Errorf("no clips to stitch")
	}
	if len(transitions) != len(clips)-1 {
		return "", "", "", fmt.Errorf("need %d transitions for %d clips, got %d",
			len(clips)-1, len(clips), len(transitions))
	}

	width, height := clips[0].width, clips[0].height
	var b strings.Builder

	// Normalize every input to a common timebase, rate, and size.
	for i := range clips {
		fmt.Fprintf(&b, "[%d:v]fps=%d,scale=%d:%d,setsar=1,settb=AVTB[v%dn];",
			i, spec.frameRate, width, height, i)
		fmt.Fprintf(&b, "[%d:a]aresample=async=1[a%dn];", i, i)
	}

	// Intro fade-in on the first clip.
	fmt.Fprintf(&b, "[v0n]fade=t=in:st=0:d=%.2f[v0f];", spec.introFade)

	curV, curA := "v0f", "a0n"
	elapsed := clips[0].duration

	for i, kind := range transitions {
		next := i + 1
		nextV := fmt.Sprintf("v%dn", next)
		nextA := fmt.Sprintf("a%dn", next)
		outV := fmt.Sprintf("vt%d", next)
		outA := fmt.Sprintf("at%d", next)

		switch kind {
		case models.TransitionCrossfade:
			d := models.CrossfadeDuration
			offset := elapsed - d
			fmt.Fprintf(&b, "[%s][%s]xfade=transition=fade:duration=%.2f:offset=%.3f[%s];",
				curV, nextV, d, offset, outV)
			fmt.Fprintf(&b, "[%s][%s]acrossfade=d=%.2f[%s];", curA, nextA, d, outA)
			elapsed += clips[next].duration - d

		case models.TransitionFade:
			// Half the fade duration out to black, half in from black.
			half := models.FadeDuration / 2
			fmt.Fprintf(&b, "[%s]fade=t=out:st=%.3f:d=%.2f[%sfo];",
				curV, elapsed-half, half, outV)
			fmt.Fprintf(&b, "[%s]fade=t=in:st=0:d=%.2f[%sfi];", nextV, half, outV)
			fmt.Fprintf(&b, "[%sfo][%s][%sfi][%s]concat=n=2:v=1:a=1[%s][%s];",
				outV, curA, outV, nextA, outV, outA)
			elapsed += clips[next].duration

		case models.TransitionCut:
			fmt.Fprintf(&b, "[%s][%s][%s][%s]concat=n=2:v=1:a=1[%s][%s];",
				curV, curA, nextV, nextA, outV, outA)
			elapsed += clips[next].duration

		default:
			return "", "", "", fmt.Errorf("unknown transition kind %q", kind)
		}
		curV, curA = outV, outA
	}

	// Outro fade-out on the assembled tail.
	fmt.Fprintf(&b, "[%s]fade=t=out:st=%.3f:d=%.2f[vout]",
		curV, elapsed-spec.outroFade, spec.outroFade)

	return b.String(), "vout", curA, nil
}
