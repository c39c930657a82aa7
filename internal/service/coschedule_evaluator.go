package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

// LargeCohortThreshold is the student count or room capacity above which
// splitting one course across parallel sessions is expected.
const LargeCohortThreshold = 140

var (
	virtualSuffixPattern = regexp.MustCompile(`^(.+)-[A-Za-z]$`)
	courseSeriesPattern  = regexp.MustCompile(`^([A-Z]+)(\d{2,3})(.+)$`)
	cs19SeriesPattern    = regexp.MustCompile(`^CS19`)
)

// relatedDepartmentPairs are prefix pairs allowed to share a course series. Each pair is sorted.
var relatedDepartmentPairs = [][2]string{
	{"CB", "CS"},
	{"CS", "IT"},
	{"CR", "CS"},
	{"AI", "CS"},
	{"CS", "MA"},
	{"MA", "ME"},
	{"EC", "EE"},
	{"CE", "ME"},
}

// CoScheduleRule is one predicate in the evaluation chain. Match returns the
// decision when the rule applies.
type CoScheduleRule struct {
	Number int
	Name   string
	Match  func(group CoScheduleGroup) (models.CoScheduleDecision, bool)
}

// CoScheduleGroup is the set of sessions sharing one group, day and time,
// with the facts the rules inspect precomputed once.
type CoScheduleGroup struct {
	Sessions    []models.Session
	UniqueCodes []string
}

func newCoScheduleGroup(sessions []models.Session) CoScheduleGroup {
	seen := make(map[string]struct{}, len(sessions))
	codes := make([]string, 0, len(sessions))
	for _, s := range sessions {
		if _, ok := seen[s.CourseCode]; ok {
			continue
		}
		seen[s.CourseCode] = struct{}{}
		codes = append(codes, s.CourseCode)
	}
	return CoScheduleGroup{Sessions: sessions, UniqueCodes: codes}
}

func (g CoScheduleGroup) singleCode() bool {
	return len(g.UniqueCodes) == 1
}

func (g CoScheduleGroup) totalStudents() int {
	total := 0
	for _, s := range g.Sessions {
		total += s.StudentCount
	}
	return total
}

func (g CoScheduleGroup) maxCapacity() int {
	highest := 0
	for _, s := range g.Sessions {
		if s.Capacity > highest {
			highest = s.Capacity
		}
	}
	return highest
}

func allow(number int, name, reason string) (models.CoScheduleDecision, bool) {
	return models.CoScheduleDecision{Allowed: true, Rule: name, RuleNumber: number, Reason: reason}, true
}

// DefaultCoScheduleRules returns the standard chain. Its last rule always allows.
func DefaultCoScheduleRules() []CoScheduleRule {
	return []CoScheduleRule{
		{Number: 1, Name: "same_course", Match: func(g CoScheduleGroup) (models.CoScheduleDecision, bool) {
			if g.singleCode() {
				return allow(1, "same_course", "Same course co-scheduling")
			}
			return models.CoScheduleDecision{}, false
		}},
		{Number: 2, Name: "virtual_instance", Match: func(g CoScheduleGroup) (models.CoScheduleDecision, bool) {
			bases := make(map[string]struct{})
			hyphenated := false
			for _, code := range g.UniqueCodes {
				bases[virtualBase(code)] = struct{}{}
				if strings.Contains(code, "-") {
					hyphenated = true
				}
			}
			if len(bases) == 1 && hyphenated {
				return allow(2, "virtual_instance", "Virtual instance co-scheduling")
			}
			return models.CoScheduleDecision{}, false
		}},
		{Number: 3, Name: "batched_session", Match: func(g CoScheduleGroup) (models.CoScheduleDecision, bool) {
			batched := false
			for _, s := range g.Sessions {
				if s.IsBatched || containsFold(s.SessionInfo, "batch") || containsFold(s.CoScheduleInfo, "batch") {
					batched = true
					break
				}
			}
			if batched && g.singleCode() {
				return allow(3, "batched_session", "Batched session co-scheduling")
			}
			return models.CoScheduleDecision{}, false
		}},
		{Number: 4, Name: "cross_department", Match: func(g CoScheduleGroup) (models.CoScheduleDecision, bool) {
			departments := make(map[string]struct{})
			for _, s := range g.Sessions {
				departments[s.GroupDepartment()] = struct{}{}
			}
			if len(departments) > 1 {
				return allow(4, "cross_department", "Cross-department scheduling")
			}
			return models.CoScheduleDecision{}, false
		}},
		{Number: 5, Name: "marked_co_scheduled", Match: func(g CoScheduleGroup) (models.CoScheduleDecision, bool) {
			for _, s := range g.Sessions {
				if s.IsCoScheduled || s.CoScheduleID != "" || strings.Contains(s.CoScheduleInfo, "Co-scheduled") {
					return allow(5, "marked_co_scheduled", "Marked co-scheduled sessions")
				}
			}
			return models.CoScheduleDecision{}, false
		}},
		{Number: 6, Name: "capacity_split", Match: func(g CoScheduleGroup) (models.CoScheduleDecision, bool) {
			large := g.totalStudents() >= LargeCohortThreshold || g.maxCapacity() >= LargeCohortThreshold
			if large && g.singleCode() {
				return allow(6, "capacity_split", "Large course capacity splitting")
			}
			return models.CoScheduleDecision{}, false
		}},
		{Number: 7, Name: "same_course_instance", Match: func(g CoScheduleGroup) (models.CoScheduleDecision, bool) {
			first := g.Sessions[0].CourseInstanceID
			for _, s := range g.Sessions[1:] {
				if s.CourseInstanceID != first {
					return models.CoScheduleDecision{}, false
				}
			}
			return allow(7, "same_course_instance", "Same course instance with different teacher sections")
		}},
		{Number: 8, Name: "large_lab", Match: func(g CoScheduleGroup) (models.CoScheduleDecision, bool) {
			if g.maxCapacity() < LargeCohortThreshold {
				return models.CoScheduleDecision{}, false
			}
			for _, s := range g.Sessions {
				if !s.IsLab() {
					return models.CoScheduleDecision{}, false
				}
			}
			return allow(8, "large_lab", "Large lab co-scheduling")
		}},
		{Number: 9, Name: "related_series", Match: func(g CoScheduleGroup) (models.CoScheduleDecision, bool) {
			if len(g.UniqueCodes) > 1 && allMatch(g.UniqueCodes, cs19SeriesPattern) {
				return allow(9, "related_series", fmt.Sprintf("CS19XXX series co-scheduling (%s)", strings.Join(g.UniqueCodes, ", ")))
			}
			prefixes, series, ok := seriesOf(g.UniqueCodes)
			if ok && len(prefixes) == 1 && len(series) == 1 {
				return allow(9, "related_series", fmt.Sprintf("Closely related course codes (%s%sXXX series)", prefixes[0], series[0]))
			}
			return models.CoScheduleDecision{}, false
		}},
		{Number: 10, Name: "related_departments", Match: func(g CoScheduleGroup) (models.CoScheduleDecision, bool) {
			prefixes, series, ok := seriesOf(g.UniqueCodes)
			if !ok || len(series) != 1 || len(prefixes) != 2 {
				return models.CoScheduleDecision{}, false
			}
			for _, pair := range relatedDepartmentPairs {
				if prefixes[0] == pair[0] && prefixes[1] == pair[1] {
					return allow(10, "related_departments", fmt.Sprintf("Cross-department related courses (%s-%s%sXXX series)", prefixes[0], prefixes[1], series[0]))
				}
			}
			return models.CoScheduleDecision{}, false
		}},
		{Number: 11, Name: "different_courses_permitted", Match: func(g CoScheduleGroup) (models.CoScheduleDecision, bool) {
			return allow(11, "different_courses_permitted", "different courses permitted in same group")
		}},
	}
}

// RejectDifferentCourses ends a chain with a rejecting rule instead of the permissive default.
func RejectDifferentCourses() CoScheduleRule {
	return CoScheduleRule{Number: 11, Name: "group_conflict", Match: func(g CoScheduleGroup) (models.CoScheduleDecision, bool) {
		return models.CoScheduleDecision{
			Allowed:    false,
			Rule:       "group_conflict",
			RuleNumber: 11,
			Reason:     fmt.Sprintf("%d different courses scheduled for one group", len(g.UniqueCodes)),
		}, true
	}}
}

// StrictCoScheduleRules is the default chain with the permissive fallback replaced by a rejection.
func StrictCoScheduleRules() []CoScheduleRule {
	rules := DefaultCoScheduleRules()
	rules[len(rules)-1] = RejectDifferentCourses()
	return rules
}

// CoScheduleEvaluator decides whether sessions colliding on a group key may share the slot.
type CoScheduleEvaluator struct {
	rules []CoScheduleRule
}

// NewCoScheduleEvaluator builds an evaluator over the given chain, or the default chain when none is given.
func NewCoScheduleEvaluator(rules ...CoScheduleRule) *CoScheduleEvaluator {
	if len(rules) == 0 {
		rules = DefaultCoScheduleRules()
	}
	return &CoScheduleEvaluator{rules: rules}
}

// Evaluate runs the chain in order; the first matching rule decides.
func (e *CoScheduleEvaluator) Evaluate(sessions []models.Session) models.CoScheduleDecision {
	if len(sessions) == 0 {
		return models.CoScheduleDecision{Allowed: true, Rule: "empty", Reason: "no sessions to compare"}
	}
	group := newCoScheduleGroup(sessions)
	for _, rule := range e.rules {
		if decision, ok := rule.Match(group); ok {
			return decision
		}
	}
	return models.CoScheduleDecision{Allowed: false, Rule: "no_rule_matched", Reason: "no co-scheduling rule applies"}
}

// CoScheduleStamp is the audit text written on sessions allowed to share a slot.
func CoScheduleStamp(decision models.CoScheduleDecision) string {
	return fmt.Sprintf("Co-scheduled: %s (%s)", decision.Reason, decision.Rule)
}

// Annotate returns copies of the sessions carrying the co-scheduling audit stamp.
// Rejections are returned unchanged.
func (e *CoScheduleEvaluator) Annotate(sessions []models.Session, decision models.CoScheduleDecision) []models.Session {
	out := make([]models.Session, len(sessions))
	copy(out, sessions)
	if !decision.Allowed {
		return out
	}
	for i := range out {
		stampSession(&out[i], decision)
	}
	return out
}

func stampSession(s *models.Session, decision models.CoScheduleDecision) {
	s.IsCoScheduled = true
	s.CoScheduleInfo = CoScheduleStamp(decision)
	if decision.RuleNumber == 11 {
		s.IsDifferentCourseAllowed = true
	}
}

func virtualBase(code string) string {
	if m := virtualSuffixPattern.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	if idx := strings.Index(code, "-"); idx >= 0 {
		return code[:idx]
	}
	return code
}

// seriesOf splits every code into prefix and series. It fails when any code
// does not follow the PREFIX+series+remainder layout.
func seriesOf(codes []string) (prefixes, series []string, ok bool) {
	if len(codes) < 2 {
		return nil, nil, false
	}
	prefixSet := make(map[string]struct{})
	seriesSet := make(map[string]struct{})
	for _, code := range codes {
		m := courseSeriesPattern.FindStringSubmatch(code)
		if m == nil {
			return nil, nil, false
		}
		prefixSet[m[1]] = struct{}{}
		seriesSet[m[2]] = struct{}{}
	}
	return sortedKeys(prefixSet), sortedKeys(seriesSet), true
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func allMatch(codes []string, pattern *regexp.Regexp) bool {
	for _, code := range codes {
		if !pattern.MatchString(code) {
			return false
		}
	}
	return true
}

func containsFold(s, substr string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
