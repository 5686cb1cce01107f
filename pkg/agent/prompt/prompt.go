// Package prompt bundles the role system prompts and user-message
// builders for the pipeline agents. Templates are fixed resources;
// stage inputs are interpolated by the builder functions.
package prompt

import (
	"fmt"
	"strings"

	"github.com/reelforge/reelforge/pkg/models"
)

// System prompts, one per LLM role.
const (
	SystemStoryDirector = `You are an award-winning advertisement story director. You write complete, emotionally compelling ad narratives in markdown.

Requirements:
- Write at least 1500 words (aim for 7500+ characters).
- Structure: hook, emotional build, product reveal, aspirational close.
- Ground every visual beat in the supplied reference images when present.
- Write for the screen: concrete imagery, camera-ready moments, sensory detail.
- Never include meta commentary about the task. Output only the story.`

	SystemStoryCritic = `You are a ruthless advertisement story critic. You score ad narratives from 0 to 100 and return structured JSON.

Scoring dimensions: emotional arc, brand integration, visual concreteness, pacing, originality.

Respond with a single JSON object, no prose outside it:
{"score": <0-100>, "status": "approved"|"needs_revision"|"rejected", "critique": "<overall assessment>", "strengths": ["..."], "improvements": ["..."], "priority_fixes": ["..."]}`

	SystemSceneWriter = `You are a commercial scene writer. You decompose an advertisement story into individual filmable scenes.

Each scene you write must:
- Be 150-250 words of cinematography-structured markdown.
- Cover: SUBJECT, ACTION, SETTING, CAMERA (shot type, movement, lens), LIGHTING, MOOD.
- Stand alone as a single continuous shot of the given duration.
- Stay consistent with every previously approved scene you are shown.
Output only the scene text.`

	SystemSceneCritic = `You are a commercial scene critic. You score a single scene from 0 to 100 and return structured JSON.

Scoring dimensions: filmability as one continuous shot, cinematographic completeness, story fidelity, consistency with prior scenes.

Respond with a single JSON object, no prose outside it:
{"score": <0-100>, "status": "approved"|"needs_minor_revision"|"needs_revision", "critique": "<overall assessment>", "strengths": ["..."], "improvements": ["..."], "priority_fixes": ["..."]}`

	SystemSceneCohesor = `You are a continuity supervisor for commercials. You analyze a full scene sequence for cross-scene cohesion: identical characters, products, environments, lighting continuity, and narrative flow between adjacent scenes.

Respond with a single JSON object, no prose outside it:
{"overall_cohesion_score": <0-100>, "pairwise": [{"from_scene": <i>, "to_scene": <i+1>, "transition_score": <0-100>, "critique": "<flow assessment>"}], "global_issues": ["..."], "scene_specific_feedback": {"<scene_number>": "<what to fix>"}}

Include exactly one pairwise entry per adjacent scene pair, in order.`

	SystemSceneEnhancer = `You are a cinematography technical director. You expand a scene description with production-grade technical detail: lens focal length, aperture, camera rig and movement, color temperature, light placement, frame composition, texture and material detail.

Rules:
- Output 300-500 words.
- Expand only. Never remove or contradict a detail present in the input.
- Output only the enhanced scene text.`

	SystemSceneAligner = `You are a continuity editor. You receive all enhanced scenes of one advertisement and rewrite them so every recurring character, product, and environment is described identically across scenes.

Rules:
- In scenes 2 and later, refer back explicitly: "the exact same <subject> from Scene 1".
- Preserve each scene's structure, duration intent, and technical detail.
- Respond with a single JSON object, no prose outside it:
{"scenes": ["<aligned scene 1>", "<aligned scene 2>", ...]}
The array length must equal the number of input scenes, in the same order.`
)

// schemaReminder is appended to a critic or cohesor prompt after a
// malformed response.
const schemaReminder = "\n\nIMPORTANT: your previous reply could not be parsed. " +
	"Respond with ONLY the JSON object in exactly the schema given in your instructions. " +
	"No markdown fences, no commentary."

// WithSchemaReminder returns the prompt with the format-correction
// suffix attached.
func WithSchemaReminder(userPrompt string) string {
	return userPrompt + schemaReminder
}

// StoryDirector builds the user message for a story iteration. On the
// first iteration prevDraft and critique are empty and the raw user
// brief drives the draft.
func StoryDirector(userPrompt, title, brandName string, iteration int, prevDraft string, critique *models.Critique) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the complete advertisement story.\n\nBrief: %s\n", userPrompt)
	if title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	if brandName != "" {
		fmt.Fprintf(&b, "Brand: %s\n", brandName)
	}
	if iteration > 1 && prevDraft != "" {
		fmt.Fprintf(&b, "\nThis is revision %d. Your previous draft:\n\n%s\n", iteration, prevDraft)
		if critique != nil {
			fmt.Fprintf(&b, "\nCritic feedback (score %d):\n%s\n", critique.Score, critique.Critique)
			appendList(&b, "Priority fixes", critique.PriorityFixes)
			appendList(&b, "Improvements", critique.Improvements)
		}
		b.WriteString("\nRewrite the full story, addressing every priority fix.\n")
	}
	return b.String()
}

// StoryCritic builds the user message for scoring a story draft.
func StoryCritic(story string) string {
	var b strings.Builder
	b.WriteString("Score this advertisement story.\n")
	if len(story) < models.MinStoryChars {
		fmt.Fprintf(&b, "Note: the draft is %d characters, below the %d character floor. Weigh this in your score.\n",
			len(story), models.MinStoryChars)
	}
	fmt.Fprintf(&b, "\n%s\n", story)
	return b.String()
}

// SceneWriter builds the user message for drafting or revising one scene.
func SceneWriter(story string, sceneNumber, numScenes, durationSeconds int,
	approved []models.Scene, critique *models.Critique, cohesionFeedback string) string {

	var b strings.Builder
	fmt.Fprintf(&b, "Write scene %d of %d. Duration: exactly %d seconds as one continuous shot.\n\nFull story:\n\n%s\n",
		sceneNumber, numScenes, durationSeconds, story)

	if len(approved) > 0 {
		b.WriteString("\nPreviously approved scenes (stay consistent with these):\n")
		for _, s := range approved {
			fmt.Fprintf(&b, "\n--- Scene %d (%ds) ---\n%s\n", s.Number, s.DurationSeconds, s.Content)
		}
	}
	if critique != nil {
		fmt.Fprintf(&b, "\nCritic feedback on your previous draft (score %d):\n%s\n", critique.Score, critique.Critique)
		appendList(&b, "Priority fixes", critique.PriorityFixes)
	}
	if cohesionFeedback != "" {
		fmt.Fprintf(&b, "\nContinuity supervisor feedback:\n%s\nRevise the scene to resolve it.\n", cohesionFeedback)
	}
	return b.String()
}

// SceneCritic builds the user message for scoring one scene draft.
func SceneCritic(scene string, sceneNumber, durationSeconds int, approved []models.Scene) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Score scene %d (%d seconds, one continuous shot).\n\n%s\n", sceneNumber, durationSeconds, scene)
	if len(approved) > 0 {
		b.WriteString("\nPrior approved scenes for consistency checking:\n")
		for _, s := range approved {
			fmt.Fprintf(&b, "\n--- Scene %d ---\n%s\n", s.Number, s.Content)
		}
	}
	return b.String()
}

// SceneCohesor builds the user message for the whole-sequence cohesion
// analysis.
func SceneCohesor(scenes []models.Scene) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the cohesion of this %d-scene advertisement.\n", len(scenes))
	for _, s := range scenes {
		fmt.Fprintf(&b, "\n--- Scene %d (%ds) ---\n%s\n", s.Number, s.DurationSeconds, s.Content)
	}
	return b.String()
}

// SceneEnhancer builds the user message for expanding one scene.
func SceneEnhancer(scene models.Scene) string {
	return fmt.Sprintf("Enhance scene %d (%d seconds) with production-grade technical detail:\n\n%s\n",
		scene.Number, scene.DurationSeconds, scene.Content)
}

// SceneAligner builds the single user message covering all enhanced
// scenes.
func SceneAligner(enhanced []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Align these %d enhanced scenes for cross-scene consistency.\n", len(enhanced))
	for i, content := range enhanced {
		fmt.Fprintf(&b, "\n--- Scene %d ---\n%s\n", i+1, content)
	}
	return b.String()
}

func appendList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
