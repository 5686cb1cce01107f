// Package agent defines the role-specialized LLM wrappers. Each role is
// a value carrying its system prompt, sampling parameters, and output
// shape; a single Runner dispatches any role against the LLM client and
// publishes the exchange to the progress bus and conversation recorder.
package agent

import "github.com/reelforge/reelforge/pkg/agent/prompt"

// Agent is one role's invocation profile.
type Agent struct {
	Name         string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
	JSONMode     bool
}

// Creative roles sample hot with a large budget; critic roles sample
// cold with schema-constrained output.
const (
	creativeTemperature float32 = 0.9
	criticTemperature   float32 = 0.3
	creativeMaxTokens           = 4096
)

func StoryDirector() Agent {
	return Agent{
		Name:         "story_director",
		SystemPrompt: prompt.SystemStoryDirector,
		Temperature:  creativeTemperature,
		MaxTokens:    creativeMaxTokens,
	}
}

func StoryCritic() Agent {
	return Agent{
		Name:         "story_critic",
		SystemPrompt: prompt.SystemStoryCritic,
		Temperature:  criticTemperature,
		MaxTokens:    creativeMaxTokens,
		JSONMode:     true,
	}
}

func SceneWriter() Agent {
	return Agent{
		Name:         "scene_writer",
		SystemPrompt: prompt.SystemSceneWriter,
		Temperature:  creativeTemperature,
		MaxTokens:    creativeMaxTokens,
	}
}

func SceneCritic() Agent {
	return Agent{
		Name:         "scene_critic",
		SystemPrompt: prompt.SystemSceneCritic,
		Temperature:  criticTemperature,
		MaxTokens:    creativeMaxTokens,
		JSONMode:     true,
	}
}

func SceneCohesor() Agent {
	return Agent{
		Name:         "scene_cohesor",
		SystemPrompt: prompt.SystemSceneCohesor,
		Temperature:  criticTemperature,
		MaxTokens:    creativeMaxTokens,
		JSONMode:     true,
	}
}

func SceneEnhancer() Agent {
	return Agent{
		Name:         "scene_enhancer",
		SystemPrompt: prompt.SystemSceneEnhancer,
		Temperature:  creativeTemperature,
		MaxTokens:    creativeMaxTokens,
	}
}

func SceneAligner() Agent {
	return Agent{
		Name:         "scene_aligner",
		SystemPrompt: prompt.SystemSceneAligner,
		Temperature:  criticTemperature,
		MaxTokens:    creativeMaxTokens,
		JSONMode:     true,
	}
}
