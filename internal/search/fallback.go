// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// KnowledgeSource produces substitute results when live search yields
// nothing. Implementations must not perform I/O and must never return an
// empty list.
type KnowledgeSource interface {
	Lookup(query string) []types.SearchResult
}

// Topic maps a lowercase keyword to canned results.
type Topic struct {
	Keyword string               `json:"keyword" yaml:"keyword"`
	Results []types.SearchResult `json:"results" yaml:"results"`
}

// StaticKnowledge is the default in-memory KnowledgeSource. Topics are
// checked in order; the first keyword contained in the lowercased query wins.
// Queries that match no topic get three generic results built from the query
// text and the current year.
type StaticKnowledge struct {
	Topics []Topic

	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// NewStaticKnowledge returns a StaticKnowledge with the given topic table.
// A nil table uses DefaultTopics.
func NewStaticKnowledge(topics []Topic) *StaticKnowledge {
	if topics == nil {
		topics = DefaultTopics()
	}
	return &StaticKnowledge{Topics: topics}
}

// Lookup returns the results for the first matching topic, or generic
// results derived from the query.
func (k *StaticKnowledge) Lookup(query string) []types.SearchResult {
	normalized := strings.ToLower(query)
	for _, t := range k.Topics {
		if t.Keyword != "" && strings.Contains(normalized, t.Keyword) {
			out := make([]types.SearchResult, len(t.Results))
			copy(out, t.Results)
			return out
		}
	}
	return k.generic(query)
}

func (k *StaticKnowledge) generic(query string) []types.SearchResult {
	now := time.Now
	if k.Now != nil {
		now = k.Now
	}
	year := now().Year()
	q := strings.TrimSpace(query)
	escaped := url.QueryEscape(q)

	return []types.SearchResult{
		{
			Title:   fmt.Sprintf("%s: Overview and Key Facts", q),
			URL:     "https://en.wikipedia.org/w/index.php?search=" + escaped,
			Snippet: fmt.Sprintf("Background reference material on %s, covering definitions, history, and the main open questions as of %d.", q, year),
		},
		{
			Title:   fmt.Sprintf("Latest News on %s (%d)", q, year),
			URL:     "https://news.google.com/search?q=" + escaped,
			Snippet: fmt.Sprintf("Recent reporting and announcements related to %s published during %d.", q, year),
		},
		{
			Title:   fmt.Sprintf("%s: Research and Analysis %d", q, year),
			URL:     "https://scholar.google.com/scholar?q=" + escaped,
			Snippet: fmt.Sprintf("Academic papers and expert analysis on %s, including studies released in %d.", q, year),
		},
	}
}

// topicFile is the YAML layout read by LoadTopics.
type topicFile struct {
	Topics []Topic `yaml:"topics"`
}

// LoadTopics reads a topic table from a YAML file of the form
//
//	topics:
//	  - keyword: ai regulation
//	    results:
//	      - title: ...
//	        url: ...
//	        snippet: ...
//
// Keywords are lowercased. Each topic must carry two or three results with
// non-empty titles and URLs.
func LoadTopics(path string) ([]Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fallback file %s: %w", path, err)
	}

	var f topicFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fallback file %s: %w", path, err)
	}
	if len(f.Topics) == 0 {
		return nil, fmt.Errorf("fallback file %s defines no topics", path)
	}

	for i := range f.Topics {
		t := &f.Topics[i]
		t.Keyword = strings.ToLower(strings.TrimSpace(t.Keyword))
		if t.Keyword == "" {
			return nil, fmt.Errorf("topic %d: empty keyword", i)
		}
		if n := len(t.Results); n < 2 || n > 3 {
			return nil, fmt.Errorf("topic %q: has %d results, want 2 or 3", t.Keyword, n)
		}
		for j, r := range t.Results {
			if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.URL) == "" {
				return nil, fmt.Errorf("topic %q: result %d needs a title and url", t.Keyword, j)
			}
		}
	}
	return f.Topics, nil
}

// DefaultTopics returns the built-in topic table. More specific keywords come
// before broader ones ("ai regulation" before "artificial intelligence").
func DefaultTopics() []Topic {
	return []Topic{
		{
			Keyword: "ai regulation",
			Results: []types.SearchResult{
				{
					Title:   "EU AI Act: first regulation on artificial intelligence",
					URL:     "https://www.europarl.europa.eu/topics/en/article/20230601STO93804/eu-ai-act-first-regulation-on-artificial-intelligence",
					Snippet: "The EU AI Act classifies AI systems by risk level and sets obligations for providers and deployers, with bans on unacceptable-risk uses and phased compliance deadlines.",
				},
				{
					Title:   "AI Risk Management Framework | NIST",
					URL:     "https://www.nist.gov/itl/ai-risk-management-framework",
					Snippet: "NIST's voluntary framework helps organizations govern, map, measure, and manage risks from AI systems, and is widely referenced by US federal guidance.",
				},
				{
					Title:   "OECD AI Policy Observatory: national AI policies",
					URL:     "https://oecd.ai/en/dashboards/overview",
					Snippet: "Tracks AI strategies and regulatory initiatives across more than 70 jurisdictions, including risk-based rules, transparency duties, and oversight bodies.",
				},
			},
		},
		{
			Keyword: "quantum computing",
			Results: []types.SearchResult{
				{
					Title:   "Quantum error correction below the surface code threshold",
					URL:     "https://www.nature.com/articles/s41586-024-08449-y",
					Snippet: "Researchers demonstrated logical qubits whose error rates fall as the code distance grows, a key milestone toward fault-tolerant quantum computers.",
				},
				{
					Title:   "IBM Quantum roadmap",
					URL:     "https://www.ibm.com/quantum/roadmap",
					Snippet: "IBM outlines processor generations, modular architectures, and error-mitigation milestones leading toward large-scale quantum-centric supercomputing.",
				},
				{
					Title:   "Post-quantum cryptography standards | NIST",
					URL:     "https://csrc.nist.gov/projects/post-quantum-cryptography",
					Snippet: "NIST has published standardized algorithms designed to resist attacks from future quantum computers and recommends migration planning now.",
				},
			},
		},
		{
			Keyword: "climate change",
			Results: []types.SearchResult{
				{
					Title:   "IPCC Sixth Assessment Report: Synthesis",
					URL:     "https://www.ipcc.ch/report/ar6/syr/",
					Snippet: "Human activities have unequivocally caused global warming of about 1.1°C; limiting warming to 1.5°C requires deep, rapid, and sustained emission cuts.",
				},
				{
					Title:   "Climate Change: Vital Signs of the Planet | NASA",
					URL:     "https://science.nasa.gov/climate-change/",
					Snippet: "Key indicators including global temperature, carbon dioxide concentration, sea level, and Arctic sea ice extent, updated with the latest observations.",
				},
			},
		},
		{
			Keyword: "renewable energy",
			Results: []types.SearchResult{
				{
					Title:   "Renewables - Energy System | IEA",
					URL:     "https://www.iea.org/energy-system/renewables",
					Snippet: "Solar PV and wind account for most new power capacity additions worldwide, with record annual growth driven by falling costs and policy support.",
				},
				{
					Title:   "Renewable Capacity Statistics | IRENA",
					URL:     "https://www.irena.org/Publications/Renewable-capacity-statistics",
					Snippet: "Country-level data on installed renewable generation capacity by technology, including hydropower, solar, wind, bioenergy, and geothermal.",
				},
			},
		},
		{
			Keyword: "artificial intelligence",
			Results: []types.SearchResult{
				{
					Title:   "AI Index Report | Stanford HAI",
					URL:     "https://hai.stanford.edu/ai-index",
					Snippet: "An annual, data-driven overview of AI research output, model capabilities, investment, policy activity, and public opinion.",
				},
				{
					Title:   "Artificial intelligence | MIT Technology Review",
					URL:     "https://www.technologyreview.com/topic/artificial-intelligence/",
					Snippet: "Reporting on advances in machine learning, large language models, and their effects on industry and society.",
				},
				{
					Title:   "Artificial intelligence - Wikipedia",
					URL:     "https://en.wikipedia.org/wiki/Artificial_intelligence",
					Snippet: "Artificial intelligence is the capability of computational systems to perform tasks associated with human intelligence, such as learning, reasoning, and perception.",
				},
			},
		},
		{
			Keyword: "cryptocurrency",
			Results: []types.SearchResult{
				{
					Title:   "Markets in Crypto-Assets Regulation (MiCA) | ESMA",
					URL:     "https://www.esma.europa.eu/esmas-activities/digital-finance-and-innovation/markets-crypto-assets-regulation-mica",
					Snippet: "MiCA establishes uniform EU rules for crypto-asset issuers and service providers, covering authorization, disclosure, and stablecoin reserves.",
				},
				{
					Title:   "Crypto Assets | Bank for International Settlements",
					URL:     "https://www.bis.org/topic/fintech/crypto_assets.htm",
					Snippet: "Research and policy papers on the risks crypto assets pose to financial stability and on approaches to their regulation and supervision.",
				},
			},
		},
		{
			Keyword: "space exploration",
			Results: []types.SearchResult{
				{
					Title:   "Artemis Program | NASA",
					URL:     "https://www.nasa.gov/humans-in-space/artemis/",
					Snippet: "NASA's Artemis campaign aims to return astronauts to the Moon and establish a sustained presence as preparation for crewed missions to Mars.",
				},
				{
					Title:   "ESA - Space Exploration",
					URL:     "https://www.esa.int/Science_Exploration/Human_and_Robotic_Exploration",
					Snippet: "The European Space Agency's human and robotic exploration activities, including lunar gateway contributions and Mars sample return.",
				},
			},
		},
		{
			Keyword: "electric vehicle",
			Results: []types.SearchResult{
				{
					Title:   "Global EV Outlook | IEA",
					URL:     "https://www.iea.org/reports/global-ev-outlook-2024",
					Snippet: "Electric car sales continue to grow, with China, Europe, and the United States leading adoption and battery prices continuing to decline.",
				},
				{
					Title:   "Alternative Fuels Data Center: Electric Vehicles",
					URL:     "https://afdc.energy.gov/vehicles/electric",
					Snippet: "Information on all-electric and plug-in hybrid vehicles, charging infrastructure, and federal and state incentives.",
				},
			},
		},
	}
}
