package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func groupOf(codes ...string) []models.Session {
	sessions := make([]models.Session, 0, len(codes))
	for i, code := range codes {
		s := theorySession(code, "T"+string(rune('1'+i)), "R"+string(rune('1'+i)), "CSE_S3", "monday", "9:00 - 9:50")
		sessions = append(sessions, s)
	}
	return sessions
}

func TestEvaluatorRuleOrder(t *testing.T) {
	evaluator := NewCoScheduleEvaluator()

	cases := []struct {
		name     string
		sessions func() []models.Session
		rule     int
	}{
		{"same course", func() []models.Session { return groupOf("CS101", "CS101") }, 1},
		{"virtual instance", func() []models.Session { return groupOf("877-A", "877-B") }, 2},
		{"virtual instance without suffix letter", func() []models.Session { return groupOf("877-1", "877") }, 2},
		{"cross department", func() []models.Session {
			s := groupOf("PH101", "EN202")
			s[1].GroupName = "MECH_S3"
			return s
		}, 4},
		{"marked co-scheduled", func() []models.Session {
			s := groupOf("PH101", "EN202")
			s[0].CoScheduleID = "cs-1"
			return s
		}, 5},
		{"marked by stamp text", func() []models.Session {
			s := groupOf("PH101", "EN202")
			s[1].CoScheduleInfo = "Co-scheduled: earlier decision"
			return s
		}, 5},
		{"large lab", func() []models.Session {
			s := []models.Session{
				labSession("PH101", "T1", "BIG", "CSE_S3", "monday", "L1", "8:00 - 9:40"),
				labSession("EN202", "T2", "BIG2", "CSE_S3", "monday", "L1", "8:00 - 9:40"),
			}
			s[0].Capacity = 150
			return s
		}, 8},
		{"same series", func() []models.Session { return groupOf("CS23331", "CS23333") }, 9},
		{"cs19 exception", func() []models.Session { return groupOf("CS19741", "CS19P18") }, 9},
		{"related departments", func() []models.Session { return groupOf("CS23333", "CB23331") }, 10},
		{"unrelated departments fall through", func() []models.Session { return groupOf("CS23333", "PH23331") }, 11},
		{"different courses", func() []models.Session { return groupOf("PH101", "EN202") }, 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := evaluator.Evaluate(tc.sessions())
			assert.True(t, decision.Allowed)
			assert.Equal(t, tc.rule, decision.RuleNumber, decision.Rule)
		})
	}
}

func TestEvaluatorBatchAndCapacityRulesNeedOneCode(t *testing.T) {
	evaluator := NewCoScheduleEvaluator()
	rules := DefaultCoScheduleRules()

	batched := newCoScheduleGroup(groupOf("CS101", "CS101"))
	batched.Sessions[0].SessionInfo = "Batch 2"
	_, ok := rules[2].Match(batched)
	assert.True(t, ok)

	mixed := newCoScheduleGroup(groupOf("CS101", "CS102"))
	mixed.Sessions[0].IsBatched = true
	_, ok = rules[2].Match(mixed)
	assert.False(t, ok)

	large := newCoScheduleGroup(groupOf("CS101", "CS101"))
	large.Sessions[0].StudentCount = 80
	large.Sessions[1].StudentCount = 60
	_, ok = rules[5].Match(large)
	assert.True(t, ok)

	sameInstance := groupOf("CS101", "CS102")
	sameInstance[1].CourseInstanceID = sameInstance[0].CourseInstanceID
	assert.Equal(t, 7, evaluator.Evaluate(sameInstance).RuleNumber)
}

func TestEvaluatorAlwaysAllowsWithDefaultChain(t *testing.T) {
	evaluator := NewCoScheduleEvaluator()
	inputs := [][]models.Session{
		groupOf("X1"),
		groupOf("AA", "BB", "CC"),
		groupOf("", ""),
		groupOf("MATH", "ENG-1", "CS19X"),
	}
	for _, sessions := range inputs {
		assert.True(t, evaluator.Evaluate(sessions).Allowed)
	}
}

func TestStrictChainRejectsDifferentCourses(t *testing.T) {
	evaluator := NewCoScheduleEvaluator(StrictCoScheduleRules()...)

	decision := evaluator.Evaluate(groupOf("PH101", "EN202"))
	assert.False(t, decision.Allowed)
	assert.Equal(t, "group_conflict", decision.Rule)

	assert.True(t, evaluator.Evaluate(groupOf("CS101", "CS101")).Allowed)
}

func TestAnnotateStampsCopies(t *testing.T) {
	evaluator := NewCoScheduleEvaluator()
	sessions := groupOf("PH101", "EN202")
	decision := evaluator.Evaluate(sessions)

	stamped := evaluator.Annotate(sessions, decision)

	for _, s := range stamped {
		assert.True(t, s.IsCoScheduled)
		assert.True(t, s.IsDifferentCourseAllowed)
		assert.Contains(t, s.CoScheduleInfo, "Co-scheduled: different courses permitted in same group")
	}
	assert.False(t, sessions[0].IsCoScheduled)

	rejected := evaluator.Annotate(sessions, models.CoScheduleDecision{Allowed: false})
	assert.False(t, rejected[0].IsCoScheduled)
}
