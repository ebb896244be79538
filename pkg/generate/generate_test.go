package generate_test

import (
	"math/rand"
	"testing"
	"text/template"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"

	"go.llib.dev/datakit/pkg/generate"
)

func TestRandom(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("every example carries the conventional field set", func(t *testcase.T) {
		ds := generate.Random{N: 25, Seed: 42}.Dataset()
		assert.Equal(t, 25, ds.Len())
		for i := 0; i < ds.Len(); i++ {
			e := ds.At(i)

			id, ok := e.Int("id")
			assert.True(t, ok)
			assert.Equal(t, int64(i+1), id)

			text, ok := e.String("text")
			assert.True(t, ok)
			assert.NotEqual(t, "", text)

			category, ok := e.String("category")
			assert.True(t, ok)
			assert.NotEqual(t, "", category)

			_, ok = e.Time("timestamp")
			assert.True(t, ok)

			_, ok = e.Float("score")
			assert.True(t, ok)
		}
	})

	s.Test("timestamps ascend with the example index", func(t *testcase.T) {
		ds := generate.Random{N: 10, Seed: 42}.Dataset()
		prev, ok := ds.At(0).Time("timestamp")
		assert.True(t, ok)
		for i := 1; i < ds.Len(); i++ {
			cur, ok := ds.At(i).Time("timestamp")
			assert.True(t, ok)
			assert.True(t, cur.After(prev))
			prev = cur
		}
	})

	s.Test("the same seed generates the same dataset", func(t *testcase.T) {
		g := generate.Random{N: 10, Seed: 42}
		assert.Equal(t, g.Dataset().Examples(), g.Dataset().Examples())
	})

	s.Test("a different seed generates a different dataset", func(t *testcase.T) {
		first := generate.Random{N: 10, Seed: 42}.Dataset()
		second := generate.Random{N: 10, Seed: 43}.Dataset()
		assert.NotEqual(t, first.Examples(), second.Examples())
	})

	s.Test("categories are drawn from the given pool", func(t *testcase.T) {
		pool := map[string]struct{}{"spam": {}, "ham": {}}
		ds := generate.Random{N: 20, Seed: 42, Categories: []string{"spam", "ham"}}.Dataset()
		for i := 0; i < ds.Len(); i++ {
			category, ok := ds.At(i).String("category")
			assert.True(t, ok)
			_, known := pool[category]
			assert.True(t, known, assert.MessageF("unexpected category %q", category))
		}
	})
}

func TestTemplate(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("the text field is rendered from the template vars", func(t *testcase.T) {
		g := generate.Template{
			N:    3,
			Text: template.Must(template.New("").Parse("review #{{.Index}} rates {{.Product}}")),
			Vars: func(i int, r *rand.Rand) map[string]any {
				return map[string]any{"Product": "gadget"}
			},
		}
		ds, err := g.Dataset()
		assert.NoError(t, err)
		assert.Equal(t, 3, ds.Len())

		text, ok := ds.At(1).String("text")
		assert.True(t, ok)
		assert.Equal(t, "review #1 rates gadget", text)
	})

	s.Test("the vars become fields of the generated example", func(t *testcase.T) {
		g := generate.Template{
			N:    1,
			Text: template.Must(template.New("").Parse("{{.Label}}")),
			Vars: func(i int, r *rand.Rand) map[string]any {
				return map[string]any{"Label": "positive"}
			},
		}
		ds, err := g.Dataset()
		assert.NoError(t, err)

		label, ok := ds.At(0).String("label")
		assert.True(t, ok)
		assert.Equal(t, "positive", label)
		index, ok := ds.At(0).Int("index")
		assert.True(t, ok)
		assert.Equal(t, int64(0), index)
	})

	s.Test("the same seed renders the same dataset", func(t *testcase.T) {
		g := generate.Template{
			N:    5,
			Seed: 42,
			Text: template.Must(template.New("").Parse("{{.Word}}")),
			Vars: func(i int, r *rand.Rand) map[string]any {
				words := []string{"alpha", "beta", "gamma", "delta"}
				return map[string]any{"Word": words[r.Intn(len(words))]}
			},
		}
		first, err := g.Dataset()
		assert.NoError(t, err)
		second, err := g.Dataset()
		assert.NoError(t, err)
		assert.Equal(t, first.Examples(), second.Examples())
	})

	s.Test("a render failure surfaces as an error, not a partial dataset", func(t *testcase.T) {
		g := generate.Template{
			N:    2,
			Text: template.Must(template.New("").Option("missingkey=error").Parse("{{.Missing}}")),
		}
		_, err := g.Dataset()
		assert.Error(t, err)
	})
}
