// Package policy indexes regulatory clause text files and retrieves the
// clauses most relevant to each agent utterance using keyword overlap
// scoring. Client custom rules and risk triggers are folded in as an
// ephemeral per-request rule set.
package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"vigilant-go/internal/config"
	"vigilant-go/internal/logger"
	"vigilant-go/internal/types"
)

const (
	policyResultsPerQuery = 3
	clientResultsPerQuery = 2
	maxDescriptionLen     = 300
	maxRuleNameLen        = 80
)

var (
	clauseIDPattern   = regexp.MustCompile(`CLAUSE\s+([\w-]+):`)
	clauseNamePattern = regexp.MustCompile(`CLAUSE\s+[\w-]+:\s*(.+)`)
	wordPattern       = regexp.MustCompile(`[a-z0-9]+`)
)

// stopwords are excluded from keyword scoring so matches hinge on
// meaningful terms rather than filler.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"i": {}, "in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "our": {}, "that": {}, "the": {}, "this": {}, "to": {},
	"was": {}, "we": {}, "were": {}, "will": {}, "with": {}, "you": {},
	"your": {},
}

type document struct {
	clauseID string
	ruleName string
	content  string
	source   string
	terms    map[string]int
}

// Store holds the indexed policy documents.
type Store struct {
	docs []document
	log  *logrus.Entry
}

// NewStore builds a store from pre-split clause texts. Used by tests
// and by LoadDir.
func NewStore(chunks []string, source string) *Store {
	s := &Store{log: logger.New().WithField("component", "policy-store")}
	for _, chunk := range chunks {
		s.docs = append(s.docs, buildDocument(chunk, source))
	}
	return s
}

// LoadDir reads every .txt file under dir, splits it into clause
// chunks on blank lines, and indexes the result. Called once at
// startup.
func LoadDir(dir string) (*Store, error) {
	log := logger.New().WithField("component", "policy-store")

	entries, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)

	s := &Store{log: log}
	for _, path := range entries {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read policy file %s: %w", path, err)
		}
		chunks := splitChunks(string(data))
		for _, chunk := range chunks {
			s.docs = append(s.docs, buildDocument(chunk, filepath.Base(path)))
		}
		log.WithFields(logrus.Fields{
			"file":   filepath.Base(path),
			"chunks": len(chunks),
		}).Info("loaded policy file")
	}

	if len(s.docs) == 0 {
		return nil, fmt.Errorf("no .txt policy files found in %s", dir)
	}

	log.WithField("total_chunks", len(s.docs)).Info("policy store built")
	return s, nil
}

// Size returns the number of indexed clause chunks.
func (s *Store) Size() int { return len(s.docs) }

// RetrieveRelevantClauses scores every indexed clause against each
// agent utterance and returns the deduplicated top matches. Client
// rules from cfg are queried separately with their own result budget.
func (s *Store) RetrieveRelevantClauses(turns []types.TranscriptTurn, cfg *config.ClientConfig) []types.PolicyClause {
	clientDocs := clientRuleDocuments(cfg)

	seen := make(map[string]struct{})
	var clauses []types.PolicyClause

	for _, turn := range turns {
		if !strings.EqualFold(turn.Speaker, "agent") || turn.Message == "" {
			continue
		}
		query := tokenize(turn.Message)

		for _, doc := range topMatches(s.docs, query, policyResultsPerQuery) {
			if _, ok := seen[doc.clauseID]; ok {
				continue
			}
			seen[doc.clauseID] = struct{}{}
			clauses = append(clauses, doc.toClause())
		}

		for _, doc := range topMatches(clientDocs, query, clientResultsPerQuery) {
			key := "CLIENT-" + doc.ruleName
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			clauses = append(clauses, doc.toClause())
		}
	}

	s.log.WithField("clauses", len(clauses)).Debug("retrieved relevant clauses")
	return clauses
}

func (d document) toClause() types.PolicyClause {
	desc := d.content
	if len(desc) > maxDescriptionLen {
		desc = desc[:maxDescriptionLen]
	}
	return types.PolicyClause{
		ClauseID:    d.clauseID,
		RuleName:    d.ruleName,
		Description: desc,
		Source:      d.source,
	}
}

func buildDocument(chunk, source string) document {
	return document{
		clauseID: extractClauseID(chunk),
		ruleName: extractRuleName(chunk),
		content:  chunk,
		source:   source,
		terms:    tokenize(chunk),
	}
}

// clientRuleDocuments converts the client's custom rules and risk
// triggers into searchable documents for this request only.
func clientRuleDocuments(cfg *config.ClientConfig) []document {
	if cfg == nil {
		return nil
	}

	var docs []document
	for _, rule := range cfg.CustomRules {
		id := rule.RuleID
		if id == "" {
			id = "CUSTOM-XX"
		}
		content := fmt.Sprintf("CLAUSE %s: %s\n%s", id, rule.RuleName, rule.Description)
		docs = append(docs, document{
			clauseID: id,
			ruleName: rule.RuleName,
			content:  content,
			source:   "client_config",
			terms:    tokenize(content),
		})
	}
	for _, trigger := range cfg.RiskTriggers {
		content := fmt.Sprintf(
			"RISK TRIGGER: %s. Any agent behaviour constituting '%s' is a policy violation.",
			trigger, trigger,
		)
		docs = append(docs, document{
			clauseID: "CLIENT-TRIGGER",
			ruleName: trigger,
			content:  content,
			source:   "client_config",
			terms:    tokenize(content),
		})
	}
	return docs
}

type scoredDoc struct {
	doc   document
	score int
	order int
}

// topMatches returns up to k documents with a positive keyword overlap
// against the query, highest score first. Ties keep index order so
// retrieval is deterministic.
func topMatches(docs []document, query map[string]int, k int) []document {
	var scored []scoredDoc
	for i, doc := range docs {
		score := 0
		for term, n := range query {
			if dn, ok := doc.terms[term]; ok {
				score += n * dn
			}
		}
		if score > 0 {
			scored = append(scored, scoredDoc{doc: doc, score: score, order: i})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].order < scored[j].order
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	out := make([]document, 0, len(scored))
	for _, sd := range scored {
		out = append(out, sd.doc)
	}
	return out
}

func splitChunks(text string) []string {
	var chunks []string
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part != "" {
			chunks = append(chunks, part)
		}
	}
	return chunks
}

func extractClauseID(text string) string {
	if m := clauseIDPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return "UNKNOWN"
}

func extractRuleName(text string) string {
	if m := clauseNamePattern.FindStringSubmatch(text); m != nil {
		name := strings.TrimSpace(m[1])
		if len(name) > maxRuleNameLen {
			name = name[:maxRuleNameLen]
		}
		return name
	}
	return "Policy Clause"
}

func tokenize(text string) map[string]int {
	terms := make(map[string]int)
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) < 3 {
			continue
		}
		if _, ok := stopwords[w]; ok {
			continue
		}
		terms[w]++
	}
	return terms
}
