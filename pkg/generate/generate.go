// Package generate produces synthetic text datasets,
// for exercising pipelines and seeding tests without real source files.
package generate

import (
	"math"
	"math/rand"
	"strings"
	"text/template"
	"time"

	"github.com/Pallinder/go-randomdata"

	"go.llib.dev/datakit"
	"go.llib.dev/datakit/pkg/dataset"
)

// baseTime anchors the generated timestamp fields,
// so generated datasets are stable inputs for chronological splitting.
var baseTime = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Random generates examples with the conventional
// id / text / category / timestamp / score field set.
type Random struct {
	// N is the number of examples to generate.
	N int
	// Seed makes the generated dataset reproducible.
	Seed int64
	// Categories is the label value pool.
	//
	// Default: business, tech, health, entertainment
	Categories []string
}

func (g Random) categories() []string {
	if len(g.Categories) == 0 {
		return []string{"business", "tech", "health", "entertainment"}
	}
	return g.Categories
}

// Dataset generates the examples.
// The same Random value generates the same dataset on every call.
func (g Random) Dataset() *dataset.Dataset {
	r := rand.New(rand.NewSource(g.Seed))
	randomdata.CustomRand(r)
	categories := g.categories()
	examples := make([]datakit.Example, 0, g.N)
	for i := 0; i < g.N; i++ {
		examples = append(examples, datakit.Example{
			"id":        int64(i + 1),
			"text":      randomdata.Paragraph(),
			"category":  categories[r.Intn(len(categories))],
			"timestamp": baseTime.Add(time.Duration(i) * time.Minute).Format(datakit.DefaultTimeLayout),
			"score":     math.Round(r.Float64()*1000) / 100,
		})
	}
	return dataset.New(examples)
}

// Template generates examples whose text field is rendered from a template.
type Template struct {
	// N is the number of examples to generate.
	N int
	// Seed makes the generated dataset reproducible.
	Seed int64
	// Text is the template of the text field.
	// It is executed with the vars of the example.
	Text *template.Template
	// Vars supplies the per-example template variables,
	// which are also stored as fields on the generated example.
	Vars func(i int, r *rand.Rand) map[string]any
}

// Dataset renders the examples.
// Render failures surface as errors, not partial datasets.
func (g Template) Dataset() (*dataset.Dataset, error) {
	r := rand.New(rand.NewSource(g.Seed))
	examples := make([]datakit.Example, 0, g.N)
	for i := 0; i < g.N; i++ {
		vars := map[string]any{"Index": i}
		if g.Vars != nil {
			for k, v := range g.Vars(i, r) {
				vars[k] = v
			}
		}
		var text strings.Builder
		if err := g.Text.Execute(&text, vars); err != nil {
			return nil, err
		}
		e := make(datakit.Example, len(vars)+1)
		for k, v := range vars {
			e[strings.ToLower(k)] = v
		}
		e["text"] = text.String()
		examples = append(examples, e)
	}
	return dataset.New(examples), nil
}
