package common

// Missions
const (
	MissionKepler = "kepler"
	MissionK2     = "k2"
	MissionTESS   = "tess"
)

// Missions lists every recognized survey mission in training order.
var Missions = []string{MissionKepler, MissionK2, MissionTESS}

// Classifier family names
const (
	FamilyGaussianNB   = "gaussian_nb"
	FamilyKNN          = "knn"
	FamilyDecisionTree = "decision_tree"
	FamilyRandomForest = "random_forest"
	FamilyLogReg       = "log_reg"
)

// Families lists the classifier families in the order they are fitted and reported.
var Families = []string{FamilyGaussianNB, FamilyKNN, FamilyDecisionTree, FamilyRandomForest, FamilyLogReg}

// Metric names
const (
	MetricAccuracy          = "accuracy"
	MetricF1Weighted        = "f1_weighted"
	MetricF1Macro           = "f1_macro"
	MetricPrecisionWeighted = "precision_weighted"
	MetricRecallWeighted    = "recall_weighted"
)

// MetricNames lists the evaluation metrics computed for every fitted model.
var MetricNames = []string{MetricAccuracy, MetricF1Weighted, MetricF1Macro, MetricPrecisionWeighted, MetricRecallWeighted}

// EnsembleRule names the vote combination used by the predictor.
const EnsembleRule = "majority_vote_candidate_neutral"

// Environment variable keys
const (
	EnvConfigFile       = "CONFIG_FILE"
	EnvDataDir          = "DATA_DIR"
	EnvDataPath         = "DATA_PATH"
	EnvSeed             = "SEED"
	EnvTestFraction     = "TEST_FRACTION"
	EnvSkipInsufficient = "SKIP_INSUFFICIENT"
	EnvAPIPort          = "API_PORT"
	EnvMetricsPort      = "METRICS_PORT"
	EnvLogLevel         = "LOG_LEVEL"
	EnvMLMode           = "ML_MODE"
	EnvMLServiceURL     = "ML_SERVICE_URL"
	EnvMLTimeout        = "ML_TIMEOUT"
)

// Configuration defaults
const (
	DefaultDataDir      = "data"
	DefaultSeed         = 42
	DefaultTestFraction = 0.2
	DefaultAPIPort      = 8001
	DefaultMetricsPort  = 9090
	DefaultLogLevel     = "info"
	DefaultMLMode       = "mock"
	DefaultMLServiceURL = "http://ml:8001"
)

// Training constants
const (
	KNNNeighbors       = 7
	TreeMaxDepth       = 8
	ForestTrees        = 200
	LogRegMaxIter      = 200
	ProbaRoundDecimals = 6
)

// Validation constants
const (
	MinPort            = 1024
	MaxPort            = 65535
	MaxTestFraction    = 0.5
	MLModeHTTP         = "http"
	MLModeMock         = "mock"
	DatasetFileSuffix  = "_data_treated.csv"
	LabelColumn        = "classification"
	ObjectIDColumn     = "object_id"
	DatabaseFileName   = "exoseeker.db"
	ErrMsgUnknownModel = "unknown model family"
)

// IsMission reports whether m is one of the recognized missions.
func IsMission(m string) bool {
	for _, known := range Missions {
		if m == known {
			return true
		}
	}
	return false
}
