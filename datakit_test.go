package datakit_test

import (
	"testing"
	"time"

	"go.llib.dev/testcase"
	"go.llib.dev/testcase/assert"

	"go.llib.dev/datakit"
)

func TestExample_Clone(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("replacing a field on the clone leaves the original untouched", func(t *testcase.T) {
		original := datakit.Example{"text": "foo", "score": 4.2}
		clone := original.Clone()
		clone["text"] = "bar"
		assert.Equal(t, "foo", original["text"].(string))
		assert.Equal(t, "bar", clone["text"].(string))
	})

	s.Test("nil example clones to nil", func(t *testcase.T) {
		var e datakit.Example
		assert.Nil(t, e.Clone())
	})
}

func TestExample_String(t *testing.T) {
	e := datakit.Example{"text": "hello", "id": int64(42), "missing": nil}

	v, ok := e.String("text")
	assert.True(t, ok)
	assert.Equal(t, "hello", v)

	v, ok = e.String("id")
	assert.True(t, ok, "non-string scalars are formatted")
	assert.Equal(t, "42", v)

	_, ok = e.String("missing")
	assert.False(t, ok)
	_, ok = e.String("absent")
	assert.False(t, ok)
}

func TestExample_numericAccessors(t *testing.T) {
	e := datakit.Example{"i": int64(7), "f": 4.25, "s": "nope"}

	i, ok := e.Int("i")
	assert.True(t, ok)
	assert.Equal(t, int64(7), i)

	i, ok = e.Int("f")
	assert.True(t, ok)
	assert.Equal(t, int64(4), i)

	_, ok = e.Int("s")
	assert.False(t, ok)

	f, ok := e.Float("i")
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)

	f, ok = e.Float("f")
	assert.True(t, ok)
	assert.Equal(t, 4.25, f)

	_, ok = e.Float("s")
	assert.False(t, ok)
}

func TestExample_Time(t *testing.T) {
	s := testcase.NewSpec(t)

	s.Test("time.Time value is returned as is", func(t *testcase.T) {
		exp := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
		e := datakit.Example{"ts": exp}
		got, ok := e.Time("ts")
		assert.True(t, ok)
		assert.Equal(t, exp, got)
	})

	s.Test("string value is parsed with the default layouts", func(t *testcase.T) {
		e := datakit.Example{"ts": "2024-03-01 12:30:00"}
		got, ok := e.Time("ts")
		assert.True(t, ok)
		assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), got)
	})

	s.Test("string value is parsed with a custom layout", func(t *testcase.T) {
		e := datakit.Example{"ts": "01/03/2024"}
		got, ok := e.Time("ts", "02/01/2006")
		assert.True(t, ok)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got)
	})

	s.Test("numeric value is interpreted as unix seconds", func(t *testcase.T) {
		e := datakit.Example{"ts": int64(1700000000)}
		got, ok := e.Time("ts")
		assert.True(t, ok)
		assert.Equal(t, time.Unix(1700000000, 0).UTC(), got)
	})

	s.Test("unparseable value reports absence", func(t *testcase.T) {
		e := datakit.Example{"ts": "not a time"}
		_, ok := e.Time("ts")
		assert.False(t, ok)
	})
}

func TestPipeline(t *testing.T) {
	s := testcase.NewSpec(t)

	upcase := datakit.TransformFunc(func(e datakit.Example) (datakit.Example, error) {
		e["v"] = e["v"].(string) + "!"
		return e, nil
	})

	s.Test("transforms are applied in declaration order", func(t *testcase.T) {
		double := datakit.TransformFunc(func(e datakit.Example) (datakit.Example, error) {
			e["v"] = e["v"].(string) + e["v"].(string)
			return e, nil
		})
		out, err := datakit.Pipeline(upcase, double).Transform(datakit.Example{"v": "a"})
		assert.NoError(t, err)
		assert.Equal(t, "a!a!", out["v"].(string))
	})

	s.Test("a failing transform stops the pipeline", func(t *testcase.T) {
		expErr := t.Random.Error()
		failing := datakit.TransformFunc(func(e datakit.Example) (datakit.Example, error) {
			return nil, expErr
		})
		var secondRan bool
		witness := datakit.TransformFunc(func(e datakit.Example) (datakit.Example, error) {
			secondRan = true
			return e, nil
		})
		_, err := datakit.Pipeline(failing, witness).Transform(datakit.Example{"v": "a"})
		assert.ErrorIs(t, err, expErr)
		assert.False(t, secondRan)
	})
}
