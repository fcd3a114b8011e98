package model

// Signals are the per-page inputs of the composite score.
type Signals struct {
	URL string `json:"url"`

	// Basic SEO
	Title            string `json:"title"`
	TitleLength      int    `json:"title_length"`
	MetaDescLength   int    `json:"meta_description_length"`
	H1Count          int    `json:"h1_count"`
	H2Count          int    `json:"h2_count"`
	H3Count          int    `json:"h3_count"`
	ImageCount       int    `json:"image_count"`
	ImagesMissingAlt int    `json:"images_missing_alt"`
	WordCount        int    `json:"word_count"`

	// Social
	TwitterCard        bool `json:"twitter_card"`
	TwitterTitle       bool `json:"twitter_title"`
	TwitterDescription bool `json:"twitter_description"`
	TwitterImage       bool `json:"twitter_image"`
	OGType             bool `json:"og_type"`
	OGTitle            bool `json:"og_title"`
	OGDescription      bool `json:"og_description"`
	OGImage            bool `json:"og_image"`
	TwitterTagCount    int  `json:"twitter_tag_count"`
	OpenGraphTagCount  int  `json:"open_graph_tag_count"`

	// Technical
	Canonical             string `json:"canonical,omitempty"`
	HTTPS                 bool   `json:"https"`
	ResponsiveViewport    bool   `json:"responsive_viewport"`
	StructuredDataCount   int    `json:"structured_data_count"`
	InvalidStructuredData int    `json:"invalid_structured_data,omitempty"`
	Charset               string `json:"charset,omitempty"`
	Generator             string `json:"generator,omitempty"`
	RobotsMeta            string `json:"robots_meta,omitempty"`

	// Performance
	PageSize      int  `json:"page_size"`
	LazyLoading   bool `json:"lazy_loading"`
	InternalLinks int  `json:"internal_links"`
	ExternalLinks int  `json:"external_links"`
	PreloadCount  int  `json:"preload_count"`
	PrefetchCount int  `json:"prefetch_count"`
}

// ScoreBreakdown is the composite score of one page.
type ScoreBreakdown struct {
	Total       int `json:"total"`
	BasicSEO    int `json:"basic_seo"`
	Social      int `json:"social"`
	Technical   int `json:"technical"`
	Performance int `json:"performance"`
}

// PageScore pairs a page with its signals and score.
type PageScore struct {
	URL     string         `json:"url"`
	Signals Signals        `json:"signals"`
	Score   ScoreBreakdown `json:"score"`
	Grade   string         `json:"grade"`
}
