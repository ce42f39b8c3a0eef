package autoarima

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/goami/calendar"
	"github.com/sartorproj/goami/outliers"
)

func TestDefaultOptionsAreValid(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
}

func TestOptionsValidate(t *testing.T) {
	cases := map[string]func(o *Options){
		"max d":          func(o *Options) { o.MaxD = 3 },
		"max bd":         func(o *Options) { o.MaxBD = 2 },
		"transformation": func(o *Options) { o.Transformation = "sqrt" },
		"mean bounds":    func(o *Options) { o.MeanHigh = o.MeanLow - 0.1 },
		"ub1":            func(o *Options) { o.UB1 = 1.2 },
		"outlier type":   func(o *Options) { o.OutlierTypes = []outliers.Type{7} },
		"td test":        func(o *Options) { o.TradingDaysTest = "both" },
		"verify level":   func(o *Options) { o.VerifyPValue = 0 },
		"diff rounds":    func(o *Options) { o.DifferencingRounds = 1 },
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			o := DefaultOptions()
			f(&o)
			assert.Error(t, o.Validate())
		})
	}
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goami.yaml")
	content := `
max_d: 1
differencing_rounds: 3
outlier_types: [AO, LS]
critical_value: 3.8
trading_days: td
transformation: auto
estimation:
  max_evaluations: 500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, 1, opts.MaxD)
	assert.Equal(t, 3, opts.DifferencingRounds)
	assert.Equal(t, 3, NewDifferencingSelector(opts).Rounds)
	assert.Equal(t, []outliers.Type{outliers.AO, outliers.LS}, opts.OutlierTypes)
	assert.Equal(t, 3.8, opts.CriticalValue)
	assert.Equal(t, calendar.TradingDays, opts.TradingDays)
	assert.Equal(t, TransformAuto, opts.Transformation)
	assert.Equal(t, 500, opts.Estimation.MaxEvaluations)

	def := DefaultOptions()
	assert.Equal(t, def.MaxBD, opts.MaxBD)
	assert.Equal(t, def.UB1, opts.UB1)
	assert.Equal(t, def.Estimation.Tolerance, opts.Estimation.Tolerance)
}

func TestLoadOptionsErrors(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_d: 5\n"), 0o600))
	_, err = LoadOptions(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("outlier_types: [XX]\n"), 0o600))
	_, err = LoadOptions(path)
	assert.Error(t, err)
}

func TestFinalCutoff(t *testing.T) {
	o := DefaultOptions()
	assert.Equal(t, 0.15, o.finalCutoff(150))
	assert.Equal(t, 0.10, o.finalCutoff(151))
}
