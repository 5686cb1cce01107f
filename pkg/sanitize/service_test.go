package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_RemovesEyeAndHairDescriptors(t *testing.T) {
	s := New(nil)
	res := s.Sanitize("A woman with piercing blue eyes and long blonde hair holds the bottle.")

	assert.NotContains(t, res.Text, "blue eyes")
	assert.NotContains(t, res.Text, "blonde hair")
	assert.Contains(t, res.Text, "holds the bottle")
	assert.Greater(t, res.RemovedChars, 0)
	assert.Equal(t, 1, res.Matches["facial_features"])
	assert.Equal(t, 1, res.Matches["hair"])
}

func TestSanitize_StripsEthnicityQualifierKeepsSubject(t *testing.T) {
	s := New(nil)
	res := s.Sanitize("A scandinavian woman walks through the kitchen.")

	assert.Contains(t, res.Text, "A woman walks")
	assert.NotContains(t, res.Text, "scandinavian")
}

func TestSanitize_RemovesAgeAndBuild(t *testing.T) {
	s := New(nil)
	res := s.Sanitize("A man in his early 30s with an athletic build lifts the box.")

	assert.NotContains(t, res.Text, "30s")
	assert.NotContains(t, res.Text, "athletic build")
	assert.Contains(t, res.Text, "lifts the box")
}

func TestSanitize_RemovesMeasurements(t *testing.T) {
	s := New(nil)
	tests := []struct {
		in      string
		removed string
	}{
		{"A man standing 6 feet tall beside the car.", "6 feet"},
		{"A model 180 cm tall leans on the railing.", "180 cm"},
		{"A 5'10\" presenter gestures at the screen.", "5'10"},
		{"A dancer weighing 60 kg spins once.", "60 kg"},
	}
	for _, tt := range tests {
		res := s.Sanitize(tt.in)
		assert.NotContains(t, res.Text, tt.removed, "input %q", tt.in)
		assert.Equal(t, 1, res.Matches["measurements"], "input %q", tt.in)
	}
}

func TestSanitize_PreservesAnchoredPhrases(t *testing.T) {
	s := New(nil)
	in := "The exact same woman from Reference Image 1 smiles at the camera, tanned skin glowing."
	res := s.Sanitize(in)

	assert.Contains(t, res.Text, "exact same woman from Reference Image 1")
	assert.NotContains(t, res.Text, "tanned skin")
}

func TestSanitize_CleanPromptUntouched(t *testing.T) {
	s := New(nil)
	in := "Close-up of the bottle on a marble counter, soft morning light."
	res := s.Sanitize(in)

	assert.Equal(t, in, res.Text)
	assert.Zero(t, res.RemovedChars)
	assert.Nil(t, res.Matches)
}

func TestSanitize_TidiesResidualPunctuation(t *testing.T) {
	s := New(nil)
	res := s.Sanitize("A presenter with brown eyes, dark hair, stands by the display.")

	require.NotContains(t, res.Text, ",,")
	assert.NotContains(t, res.Text, "  ")
	assert.Contains(t, res.Text, "stands by the display")
}
