package variant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ashureev/softsell/internal/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"classic", "polished"}, Presets())

	polished, err := Preset("Polished")
	require.NoError(t, err)
	assert.True(t, polished.Animations.TypingDots)
	assert.False(t, Default().Animations.TypingDots)

	_, err = Preset("retro")
	require.ErrorIs(t, err, ErrUnknownPreset)
}

func TestParseExtendsPreset(t *testing.T) {
	t.Parallel()

	v, err := Parse([]byte(`
name: spring-campaign
extends: polished
chat_title: Ask SoftSell
animations:
  hero_float: false
replies:
  greeting: "Hey! Spring payouts are up. What can I help with?"
`))
	require.NoError(t, err)

	assert.Equal(t, "spring-campaign", v.Name)
	assert.Equal(t, "Ask SoftSell", v.ChatTitle)
	assert.False(t, v.Animations.HeroFloat)
	assert.True(t, v.Animations.TypingDots, "unset keys keep the preset value")
	assert.Equal(t, "bot", v.Icons.Launcher)

	catalog := v.Catalog()
	assert.Equal(t, "Hey! Spring payouts are up. What can I help with?", catalog[chat.TopicGreeting])
	assert.Equal(t, chat.DefaultCatalog()[chat.TopicPayment], catalog[chat.TopicPayment])
}

func TestParseRejectsUnknownTopic(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("name: x\nreplies:\n  weather: sunny\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather")
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("name: x\ncolour: blue\n"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "variant.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: local\ngreeting: Welcome back!\n"), 0o644))

	v, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "local", v.Name)

	sess := chat.NewSession("s1", chat.NewDispatcher(v.Catalog()), v.SessionOptions()...)
	assert.Equal(t, "Welcome back!", sess.Transcript()[0].Content)
}
