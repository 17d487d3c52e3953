// Package config holds the single immutable policy bundle threaded through
// every pipeline stage (spec §9: "pass the policy bundle... as a single
// immutable configuration to each stage"). Grounded on the teacher's
// internal/config/config.go struct layout and internal/config/validator.go
// clamp-not-fail philosophy.
package config

// Policy is the full configuration surface enumerated in spec §6, plus the
// per-language weight tables spec §4.5 describes as "a policy table keyed
// on file extension", plus the history caps spec §9's third Open Question
// asks to expose as configuration.
type Policy struct {
	// Budget is the token cap on the final output. Zero means "no budget":
	// tau-stopping alone controls the selection size (spec §6).
	Budget int

	// Alpha is the PPR damping factor, range [0.50, 0.65], default 0.60
	// (spec §4.7, §6).
	Alpha float64

	// Tau is the selector's relative stopping threshold, range
	// [0.05, 0.20], default 0.08 (spec §4.8, §6).
	Tau float64

	// Full bypasses the Selector and returns the entire candidate universe
	// V, for debugging or maximum-context use (spec §6).
	Full bool

	// MaxUniverse caps |V|, default 5000 (spec §4.4, §6).
	MaxUniverse int

	// OverheadPerFragment is the per-fragment output-framing token cost
	// added to cost(f) (spec §4.8, §6), default 18.
	OverheadPerFragment int

	// PPRMaxIterations and PPRConvergenceL1 bound the PPR loop (spec §4.7):
	// stop at 50 iterations or when the L1 delta falls under 1e-4.
	PPRMaxIterations  int
	PPRConvergenceL1  float64

	// RareConceptFileThreshold is the "≤3 files" cutoff that makes a diff
	// concept "rare" for universe expansion (spec §4.4 source 2).
	RareConceptFileThreshold int

	// HubPercentile is the in-degree percentile above which hub
	// suppression applies, default 0.95 (spec §4.6).
	HubPercentile float64

	// HistoryCommitWindow and HistoryMaxFilesPerCommit are the co-change
	// history caps (spec §4.5 History family, §9 Open Question 3).
	HistoryCommitWindow     int
	HistoryMaxFilesPerCommit int

	// Semantic holds the per-language-extension weight policy for the
	// semantic edge family (spec §4.5's worked example: Rust 0.95, Go
	// 0.85, Python 0.55).
	Semantic SemanticWeights

	// Similarity holds the per-language-category TF-IDF cosine threshold
	// and weight range for the similarity family (spec §4.5: "dynamic
	// langs wider, typed narrower").
	Similarity SimilarityWeights

	// Structural holds weights for the structural family (containment,
	// sibling, test↔code) (spec §4.5).
	Structural StructuralWeights

	// Configuration holds the weight for configuration-reference edges
	// (spec §4.5).
	ConfigurationWeight float64

	// Document holds the single weight given to every Markdown
	// section/anchor link edge (spec §4.5).
	DocumentWeight float64

	// History holds the weight range for co-change edges (spec §4.5).
	HistoryWeight float64

	// FuzzyNameThreshold is the Jaro-Winkler similarity above which two
	// differently-spelled identifiers are still treated as the same
	// symbol reference by the semantic edge builder's name resolver
	// (SPEC_FULL §3.5).
	FuzzyNameThreshold float64
}

// SemanticWeights is the forward-call/reference weight per file extension,
// plus the fraction of the forward weight used for the reverse edge (spec
// §4.5: "Forward; reverse added at 0.4-0.7x forward").
type SemanticWeights struct {
	ByExtension    map[string]float64
	Default        float64
	ReverseFactor  float64
}

// SimilarityWeights configures the TF-IDF cosine similarity family.
// Dynamically typed languages get a wider band (more false positives
// tolerated) and statically typed languages a narrower one, per spec
// §4.5.
type SimilarityWeights struct {
	DynamicThreshold float64
	DynamicMax       float64
	TypedThreshold   float64
	TypedMax         float64
	DynamicExtensions map[string]bool
}

// StructuralWeights configures containment/sibling/test-pair edges.
type StructuralWeights struct {
	Containment   float64
	Sibling       float64
	TestCodePair  float64
	ReverseFactor float64
}

// Default returns the policy with every spec §6 default applied.
func Default() Policy {
	return Policy{
		Budget:                   0,
		Alpha:                    0.60,
		Tau:                      0.08,
		Full:                     false,
		MaxUniverse:              5000,
		OverheadPerFragment:      18,
		PPRMaxIterations:         50,
		PPRConvergenceL1:         1e-4,
		RareConceptFileThreshold: 3,
		HubPercentile:            0.95,
		HistoryCommitWindow:      500,
		HistoryMaxFilesPerCommit: 30,
		Semantic: SemanticWeights{
			ByExtension: map[string]float64{
				".rs":    0.95,
				".go":    0.85,
				".java":  0.80,
				".cs":    0.80,
				".ts":    0.75,
				".tsx":   0.75,
				".js":    0.65,
				".jsx":   0.65,
				".py":    0.55,
			},
			Default:       0.60,
			ReverseFactor: 0.55,
		},
		Similarity: SimilarityWeights{
			DynamicThreshold: 0.10,
			DynamicMax:       0.35,
			TypedThreshold:   0.18,
			TypedMax:         0.30,
			DynamicExtensions: map[string]bool{
				".py": true, ".js": true, ".jsx": true, ".rb": true, ".php": true,
			},
		},
		Structural: StructuralWeights{
			Containment:   0.60,
			Sibling:       0.20,
			TestCodePair:  0.45,
			ReverseFactor: 0.50,
		},
		ConfigurationWeight: 0.65,
		DocumentWeight:      0.45,
		HistoryWeight:       0.25,
		FuzzyNameThreshold:  0.92,
	}
}
