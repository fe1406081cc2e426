package e2etests

import (
	"regexp"

	"github.com/tauri-postgres/tauri-e2e/webdriver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postgresPromptPattern = regexp.MustCompile(`Enter a postgres query\.\.\.`)

// maxBackgroundLuma is the brightest background the dark theme allows.
const maxBackgroundLuma = 100

func DoHelloTauriTests(t *T) {
	t.Run("We see the postgres button", func(t *T) {
		el := t.RequireElement(webdriver.ByID("postgres"))
		assert.Regexp(t, postgresPromptPattern, t.RequireText(el))
	})

	t.Run("should be easy on the eyes", func(t *T) {
		t.RequireCheckEnabled(CheckContrast)

		body := t.RequireElement(webdriver.ByCSS("body"))
		value := t.RequireCSSValue(body, "background-color")
		c, err := ParseCSSColor(value)
		require.NoError(t, err)
		assert.Less(t, c.Luma(), float64(maxBackgroundLuma), "background %s is too bright", value)
	})
}
