package autoarima

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sartorproj/goami/calendar"
	"github.com/sartorproj/goami/estimation"
	"github.com/sartorproj/goami/outliers"
	"github.com/sartorproj/goami/sarima"
)

// Transformation choices of Options.Transformation.
const (
	TransformAuto = "auto"
	TransformNone = "none"
	TransformLog  = "log"
)

// Trading-day test modes of Options.TradingDaysTest.
const (
	TestJoint    = "joint"
	TestSeparate = "separate"
)

// Options holds configuration for automatic model identification.
// An Options value is immutable once a context has been created from it.
type Options struct {
	// Modelling switches
	AutomaticModeling bool    `yaml:"automatic_modeling"`
	Seasonal          bool    `yaml:"seasonal"`
	Mean              bool    `yaml:"mean"`
	Transformation    string  `yaml:"transformation" validate:"oneof=auto none log"`
	LogLevelBias      float64 `yaml:"log_level_bias"`
	// Order is the model used when AutomaticModeling is off. The zero
	// order selects the airline model.
	Order sarima.Order `yaml:"order"`

	// Differencing selector
	MaxD               int     `yaml:"max_d" validate:"gte=0,lte=2"`
	MaxBD              int     `yaml:"max_bd" validate:"gte=0,lte=1"`
	UB1                float64 `yaml:"ub1" validate:"gt=0,lt=1"`
	UB2                float64 `yaml:"ub2" validate:"gt=0,lt=1"`
	Cancel             float64 `yaml:"cancel" validate:"gte=0,lt=1"`
	DifferencingRounds int     `yaml:"differencing_rounds" validate:"gte=2"`

	// ARMA order search
	MaxP             int     `yaml:"max_p" validate:"gte=0,lte=3"`
	MaxQ             int     `yaml:"max_q" validate:"gte=0,lte=3"`
	MaxBP            int     `yaml:"max_bp" validate:"gte=0,lte=1"`
	MaxBQ            int     `yaml:"max_bq" validate:"gte=0,lte=1"`
	VC11             float64 `yaml:"vc11" validate:"gte=0"`
	VC2              float64 `yaml:"vc2" validate:"gte=0"`
	VC22             float64 `yaml:"vc22" validate:"gte=0"`
	MaxSurvivors     int     `yaml:"max_survivors" validate:"gte=1"`
	AcceptWhiteNoise bool    `yaml:"accept_white_noise"`

	// Outlier detection
	OutlierDetection     bool            `yaml:"outlier_detection"`
	OutlierTypes         []outliers.Type `yaml:"outlier_types" validate:"dive,gte=0,lte=3"`
	CriticalValue        float64         `yaml:"critical_value" validate:"gte=0"` // 0 selects the curve of outliers.CriticalValue
	MinCV                float64         `yaml:"min_cv" validate:"gte=0"`
	Selectivity          int             `yaml:"selectivity" validate:"gte=0"`
	MaxSelectivity       int             `yaml:"max_selectivity" validate:"gte=0"`
	SelectivityReduction float64         `yaml:"selectivity_reduction" validate:"gte=0,lt=1"`
	TCRate               float64         `yaml:"tc_rate" validate:"gt=0,lt=1"`
	MaxOutlierRounds     int             `yaml:"max_outlier_rounds" validate:"gte=1"`
	MaxOutliers          int             `yaml:"max_outliers" validate:"gte=0"`
	ReestimateOutliers   bool            `yaml:"reestimate_outliers"`
	RobustScale          bool            `yaml:"robust_scale"`

	// Model refiner
	RefineIterations int     `yaml:"refine_iterations" validate:"gte=1"`
	MaxAttempts      int     `yaml:"max_attempts" validate:"gte=1"`
	TSig             float64 `yaml:"tsig" validate:"gt=0"`
	FinalCutoffSmall float64 `yaml:"final_cutoff_small" validate:"gte=0"`
	FinalCutoffLarge float64 `yaml:"final_cutoff_large" validate:"gte=0"`
	SmallSample      int     `yaml:"small_sample" validate:"gte=1"`

	// Regression variables
	TradingDays      calendar.TradingDaysType `yaml:"trading_days"`
	TradingDaysTest  string                   `yaml:"trading_days_test" validate:"oneof=joint separate"`
	LeapYear         bool                     `yaml:"leap_year"`
	Easter           bool                     `yaml:"easter"`
	EasterDuration   int                      `yaml:"easter_duration" validate:"gte=1,lte=25"`
	RegressionTCrit  float64                  `yaml:"regression_tcrit" validate:"gt=0"`
	RegressionPValue float64                  `yaml:"regression_pvalue" validate:"gt=0,lt=1"`
	MeanLow          float64                  `yaml:"mean_low" validate:"gt=0"`
	MeanHigh         float64                  `yaml:"mean_high" validate:"gtefield=MeanLow"`
	MaxPrunerRounds  int                      `yaml:"max_pruner_rounds" validate:"gte=1"`

	// Seasonality controller
	SeasonalityPValue float64 `yaml:"seasonality_pvalue" validate:"gt=0,lt=1"`
	SeasonalityScore  int     `yaml:"seasonality_score" validate:"gte=1,lte=3"`
	ResidualPValue    float64 `yaml:"residual_pvalue" validate:"gt=0,lt=1"`

	// Model comparator
	KBic  float64 `yaml:"kbic" validate:"gte=0"`
	KLB   float64 `yaml:"klb" validate:"gt=0,lte=1"`
	KOut  float64 `yaml:"kout" validate:"gte=0"`
	KSk   float64 `yaml:"ksk" validate:"gt=0,lte=1"`
	KStab float64 `yaml:"kstab" validate:"gte=0"`

	// Model verifier
	MaxOutlierPercent int     `yaml:"max_outlier_percent" validate:"gte=0,lte=100"`
	VerifyPValue      float64 `yaml:"verify_pvalue" validate:"gt=0,lt=1"`
	LjungBoxPValue    float64 `yaml:"ljung_box_pvalue" validate:"gt=0,lt=1"`

	Estimation estimation.Config `yaml:"estimation"`
}

// DefaultOptions returns the default identification options.
func DefaultOptions() Options {
	return Options{
		AutomaticModeling: true,
		Seasonal:          true,
		Mean:              true,
		Transformation:    TransformNone,

		MaxD:               2,
		MaxBD:              1,
		UB1:                0.97,
		UB2:                0.88,
		Cancel:             0.1,
		DifferencingRounds: 5,

		MaxP:         3,
		MaxQ:         3,
		MaxBP:        1,
		MaxBQ:        1,
		VC11:         0.01,
		VC2:          0.0025,
		VC22:         0.0075,
		MaxSurvivors: 5,

		OutlierDetection:     true,
		OutlierTypes:         []outliers.Type{outliers.AO, outliers.LS, outliers.TC},
		MinCV:                2.0,
		MaxSelectivity:       2,
		SelectivityReduction: 0.14286,
		TCRate:               0.7,
		MaxOutlierRounds:     50,
		MaxOutliers:          30,
		RobustScale:          true,

		RefineIterations: 5,
		MaxAttempts:      10,
		TSig:             1.0,
		FinalCutoffSmall: 0.15,
		FinalCutoffLarge: 0.10,
		SmallSample:      150,

		TradingDaysTest:  TestJoint,
		EasterDuration:   6,
		RegressionTCrit:  1.96,
		RegressionPValue: 0.05,
		MeanLow:          1.96,
		MeanHigh:         2.2,
		MaxPrunerRounds:  3,

		SeasonalityPValue: 0.01,
		SeasonalityScore:  2,
		ResidualPValue:    0.01,

		KBic:  0.03,
		KLB:   0.9,
		KOut:  0.01,
		KSk:   0.8,
		KStab: 0.02,

		MaxOutlierPercent: 3,
		VerifyPValue:      0.01,
		LjungBoxPValue:    0.05,

		Estimation: estimation.DefaultConfig(),
	}
}

var validate = validator.New()

// Validate checks the options against their bounds.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// LoadOptions reads options from a YAML file. Fields absent from the file
// keep their default value.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read options: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse options %s: %w", path, err)
	}
	return opts, opts.Validate()
}

// criticalValue returns the outlier threshold for n observations at the
// given selectivity level.
func (o Options) criticalValue(n, level int) float64 {
	cv := o.CriticalValue
	if cv <= 0 {
		cv = outliers.CriticalValue(n)
	}
	return outliers.RelaxCriticalValue(cv, o.SelectivityReduction, level, o.MinCV)
}

// finalCutoff returns the coefficient size below which an insignificant
// ARMA parameter is dropped.
func (o Options) finalCutoff(n int) float64 {
	if n <= o.SmallSample {
		return o.FinalCutoffSmall
	}
	return o.FinalCutoffLarge
}
