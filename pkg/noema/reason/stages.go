package reason

import (
	"fmt"
	"strings"

	"github.com/cognicore/noema/pkg/noema/kb"
)

// runStage dispatches to the processor for a stage. Every processor has the
// same shape: read-only facts and rules in, derived facts and fired rule ids
// out.
func runStage(stage kb.Stage, facts []kb.Fact, rules []kb.Rule) ([]kb.Fact, []string) {
	switch stage {
	case kb.StageUnderstanding:
		return stageUnderstanding(facts, rules)
	case kb.StageThought:
		return stageThought(facts, rules)
	case kb.StageSpeech:
		return stageSpeech(facts, rules)
	case kb.StageAction:
		return stageAction(facts, rules)
	case kb.StageLivelihood:
		return stageLivelihood(facts, rules)
	case kb.StageEffort:
		return stageEffort(facts, rules)
	case kb.StageMindfulness:
		return stageMindfulness(facts, rules)
	case kb.StageConcentration:
		return stageConcentration(facts, rules)
	default:
		return nil, nil
	}
}

// stageFilter reports whether an untagged fact is input to a stage.
func stageFilter(stage kb.Stage, f kb.Fact) bool {
	switch stage {
	case kb.StageUnderstanding:
		return f.Kind == "class" || f.Kind == "taxonomy"
	case kb.StageThought:
		return f.Properties["parents"] != "" || f.Kind == "rule" || f.Kind == "inferred"
	case kb.StageSpeech:
		return f.Kind == "property" && f.Properties["range"] != ""
	case kb.StageAction:
		repr := strings.ToLower(f.Label + " " + f.Kind + " " + f.URI)
		return strings.Contains(repr, "function") || strings.Contains(repr, "operation")
	case kb.StageLivelihood:
		return f.Kind == "property" && f.Properties["domain"] != ""
	case kb.StageEffort:
		return f.Derived && f.Kind != "reinforced" && f.Kind != "provenance"
	case kb.StageMindfulness:
		return f.Properties["source"] != "" && f.Kind != "provenance"
	case kb.StageConcentration:
		return f.Derived && (f.Kind == "subClassOf" || f.Kind == "inferred")
	default:
		return false
	}
}

// stageUnderstanding emits one subClassOf relationship fact per declared
// superclass of each class fact.
func stageUnderstanding(facts []kb.Fact, rules []kb.Rule) ([]kb.Fact, []string) {
	var out []kb.Fact
	for _, f := range facts {
		parents := splitList(f.Properties["parents"])
		for _, parent := range parents {
			out = append(out, kb.Fact{
				Kind:  "subClassOf",
				URI:   f.URI + "#subClassOf#" + parent,
				Label: fmt.Sprintf("%s subClassOf %s", f.Label, parent),
				Properties: map[string]string{
					"child":  f.URI,
					"parent": parent,
					"source": f.URI,
				},
			})
		}
	}

	var applied []string
	if len(out) > 0 {
		for _, r := range rules {
			if r.Kind == "subClassOf" || r.Kind == "subsumption" {
				applied = append(applied, r.ID)
			}
		}
	}
	return out, applied
}

// stageThought applies inference rules whose antecedents are all present
// among the input facts.
func stageThought(facts []kb.Fact, rules []kb.Rule) ([]kb.Fact, []string) {
	known := make(map[string]string, len(facts)) // URI/label -> URI
	for _, f := range facts {
		known[f.URI] = f.URI
		if f.Label != "" {
			known[f.Label] = f.URI
		}
	}

	var out []kb.Fact
	var applied []string
	for _, r := range rules {
		if len(r.Antecedent) == 0 {
			continue
		}
		source := ""
		satisfied := true
		for _, a := range r.Antecedent {
			uri, ok := known[a]
			if !ok {
				satisfied = false
				break
			}
			source = uri
		}
		if !satisfied {
			continue
		}
		out = append(out, kb.Fact{
			Kind:  "inferred",
			URI:   r.Consequent,
			Label: r.Consequent,
			Properties: map[string]string{
				"rule":   r.ID,
				"source": source,
			},
		})
		applied = append(applied, r.ID)
	}
	return out, applied
}

// stageSpeech derives expression facts describing how typed properties are
// spoken about (label plus range).
func stageSpeech(facts []kb.Fact, rules []kb.Rule) ([]kb.Fact, []string) {
	var out []kb.Fact
	for _, f := range facts {
		out = append(out, kb.Fact{
			Kind:  "expression",
			URI:   f.URI + "#expression",
			Label: fmt.Sprintf("%s ranges over %s", f.Label, f.Properties["range"]),
			Properties: map[string]string{
				"property": f.URI,
				"range":    f.Properties["range"],
				"source":   f.URI,
			},
		})
	}
	return out, ruleIDsOfKind(rules, "expression", len(out))
}

// stageAction derives capability facts for elements whose representation
// mentions functions or operations.
func stageAction(facts []kb.Fact, rules []kb.Rule) ([]kb.Fact, []string) {
	var out []kb.Fact
	for _, f := range facts {
		out = append(out, kb.Fact{
			Kind:  "capability",
			URI:   f.URI + "#capability",
			Label: fmt.Sprintf("%s is executable", f.Label),
			Properties: map[string]string{
				"subject": f.URI,
				"source":  f.URI,
			},
		})
	}
	return out, ruleIDsOfKind(rules, "capability", len(out))
}

// stageLivelihood links properties to the classes they sustain (their
// declared domains).
func stageLivelihood(facts []kb.Fact, rules []kb.Rule) ([]kb.Fact, []string) {
	var out []kb.Fact
	for _, f := range facts {
		out = append(out, kb.Fact{
			Kind:  "domainUsage",
			URI:   f.URI + "#domain#" + f.Properties["domain"],
			Label: fmt.Sprintf("%s used by %s", f.Label, f.Properties["domain"]),
			Properties: map[string]string{
				"property": f.URI,
				"class":    f.Properties["domain"],
				"source":   f.URI,
			},
		})
	}
	return out, ruleIDsOfKind(rules, "domain", len(out))
}

// stageEffort reinforces derived facts, marking them as carried into the
// next round of derivation.
func stageEffort(facts []kb.Fact, rules []kb.Rule) ([]kb.Fact, []string) {
	var out []kb.Fact
	for _, f := range facts {
		out = append(out, kb.Fact{
			Kind:  "reinforced",
			URI:   f.URI + "#reinforced",
			Label: fmt.Sprintf("%s reinforced", f.Label),
			Properties: map[string]string{
				"subject": f.URI,
				"source":  f.URI,
			},
		})
	}
	return out, ruleIDsOfKind(rules, "reinforcement", len(out))
}

// stageMindfulness records provenance facts for every fact that names a
// source.
func stageMindfulness(facts []kb.Fact, rules []kb.Rule) ([]kb.Fact, []string) {
	var out []kb.Fact
	for _, f := range facts {
		out = append(out, kb.Fact{
			Kind:  "provenance",
			URI:   f.URI + "#provenance",
			Label: fmt.Sprintf("%s derives from %s", f.Label, f.Properties["source"]),
			Properties: map[string]string{
				"subject": f.URI,
				"origin":  f.Properties["source"],
			},
		})
	}
	return out, ruleIDsOfKind(rules, "provenance", len(out))
}

// stageConcentration synthesizes derived relationship facts into per-kind
// summary facts.
func stageConcentration(facts []kb.Fact, rules []kb.Rule) ([]kb.Fact, []string) {
	byKind := make(map[string]int)
	for _, f := range facts {
		byKind[f.Kind]++
	}

	var out []kb.Fact
	for _, kind := range []string{"subClassOf", "inferred"} {
		count := byKind[kind]
		if count == 0 {
			continue
		}
		out = append(out, kb.Fact{
			Kind:  "synthesis",
			URI:   "synthesis#" + kind,
			Label: fmt.Sprintf("%d %s facts synthesized", count, kind),
			Properties: map[string]string{
				"relation": kind,
				"count":    fmt.Sprint(count),
			},
		})
	}
	return out, ruleIDsOfKind(rules, "synthesis", len(out))
}

// ruleIDsOfKind reports the stage's matching rules as applied when the
// processor produced output.
func ruleIDsOfKind(rules []kb.Rule, kind string, produced int) []string {
	if produced == 0 {
		return nil
	}
	var ids []string
	for _, r := range rules {
		if r.Kind == kind {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func splitList(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
