package types

type IndicatorType string

const (
	IndicatorTypeMA5                    IndicatorType = "ma5"
	IndicatorTypeMA10                   IndicatorType = "ma10"
	IndicatorTypeMA20                   IndicatorType = "ma20"
	IndicatorTypeMA60                   IndicatorType = "ma60"
	IndicatorTypeBollingerBands         IndicatorType = "bollinger_bands"
	IndicatorTypeMACD                   IndicatorType = "macd"
	IndicatorTypeRSI                    IndicatorType = "rsi"
	IndicatorTypeKDJ                    IndicatorType = "kdj"
	IndicatorTypePlaceholderOscillators IndicatorType = "placeholder_oscillators"
)

// MovingAveragePeriods are the SMA windows carried by every IndicatorSeries.
var MovingAveragePeriods = []int{5, 10, 20, 60}

// OscillatorMode selects how MACD, RSI and KDJ fields are produced.
type OscillatorMode string

const (
	// OscillatorModeTextbook computes MACD, RSI and KDJ from their standard definitions.
	OscillatorModeTextbook OscillatorMode = "textbook"
	// OscillatorModePlaceholder emits the decorative index-based waves used by the demo dashboard.
	OscillatorModePlaceholder OscillatorMode = "placeholder"
)

// AllOscillatorModes lists every supported OscillatorMode.
var AllOscillatorModes = []any{string(OscillatorModeTextbook), string(OscillatorModePlaceholder)}

// ValidationPolicy decides what happens to malformed bars at ingestion.
type ValidationPolicy string

const (
	// ValidationPolicyReject fails the whole series when any bar is malformed.
	ValidationPolicyReject ValidationPolicy = "reject"
	// ValidationPolicySkip drops malformed bars and computes the rest.
	ValidationPolicySkip ValidationPolicy = "skip"
	// ValidationPolicyAccept computes bars as they are.
	ValidationPolicyAccept ValidationPolicy = "accept"
)

// AllValidationPolicies lists every supported ValidationPolicy.
var AllValidationPolicies = []any{string(ValidationPolicyReject), string(ValidationPolicySkip), string(ValidationPolicyAccept)}
