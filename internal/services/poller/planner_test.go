package poller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dkchapman16/loadwatch/internal/models"
)

type PlannerSuite struct {
	suite.Suite
}

func (s *PlannerSuite) TestBackoffDelay() {
	p := DefaultPlanner()
	s.Equal(5*time.Minute, p.BackoffDelay(1))
	s.Equal(15*time.Minute, p.BackoffDelay(2))
	s.Equal(30*time.Minute, p.BackoffDelay(3))
	s.Equal(60*time.Minute, p.BackoffDelay(4))
	s.Equal(60*time.Minute, p.BackoffDelay(100))
}

func (s *PlannerSuite) TestNextPollDelay() {
	p := DefaultPlanner()
	s.Equal(5*time.Minute, p.NextPollDelay(models.RiskStatusAtRisk))
	s.Equal(10*time.Minute, p.NextPollDelay(models.RiskStatusWatch))
	s.Equal(15*time.Minute, p.NextPollDelay(models.RiskStatusOK))
	s.Equal(15*time.Minute, p.NextPollDelay("whatever"))
}

func (s *PlannerSuite) TestNewPlanner_FillsDefaults() {
	p := NewPlanner(PlannerConfig{AtRiskDelay: time.Minute})
	s.Equal(time.Minute, p.NextPollDelay(models.RiskStatusAtRisk))
	s.Equal(10*time.Minute, p.NextPollDelay(models.RiskStatusWatch))
}

func (s *PlannerSuite) TestWorstStatus() {
	s.Equal(models.RiskStatusOK, WorstStatus(nil))
	s.Equal(models.RiskStatusOK, WorstStatus([]*models.Load{{LastStatus: "OK"}}))
	s.Equal(models.RiskStatusWatch, WorstStatus([]*models.Load{{LastStatus: "OK"}, {LastStatus: "WATCH"}}))
	s.Equal(models.RiskStatusAtRisk, WorstStatus([]*models.Load{{LastStatus: "WATCH"}, {LastStatus: "AT_RISK"}, {LastStatus: "OK"}}))
}

func TestPlannerSuite(t *testing.T) {
	suite.Run(t, new(PlannerSuite))
}
