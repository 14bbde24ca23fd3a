package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"barsim/pkg/errors"
)

// EquityRecorderTestSuite is a test suite for EquityRecorder
type EquityRecorderTestSuite struct {
	suite.Suite
	recorder *EquityRecorder
}

// SetupTest runs before each test
func (suite *EquityRecorderTestSuite) SetupTest() {
	suite.recorder = NewEquityRecorder()
}

// TestEquityRecorderTestSuite runs the test suite
func TestEquityRecorderTestSuite(t *testing.T) {
	suite.Run(t, new(EquityRecorderTestSuite))
}

func (suite *EquityRecorderTestSuite) TestRecordAppendsInOrder() {
	_, err := suite.recorder.Record(day(1), 100_000)
	suite.Require().NoError(err)

	_, err = suite.recorder.Record(day(2), 101_000)
	suite.Require().NoError(err)

	points := suite.recorder.Points()
	suite.Require().Len(points, 2)
	suite.Assert().Equal(100_000.0, points[0].Equity)
	suite.Assert().Equal(101_000.0, points[1].Equity)
	suite.Assert().Equal(2, suite.recorder.Len())
}

func (suite *EquityRecorderTestSuite) TestRecordRejectsReclosedDate() {
	_, err := suite.recorder.Record(day(1), 100_000)
	suite.Require().NoError(err)

	_, err = suite.recorder.Record(day(1), 101_000)
	suite.Require().Error(err)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeSequencing))
	suite.Assert().Equal(1, suite.recorder.Len())
}

func (suite *EquityRecorderTestSuite) TestRecordRejectsEarlierDate() {
	_, err := suite.recorder.Record(day(5), 100_000)
	suite.Require().NoError(err)

	_, err = suite.recorder.Record(day(3), 99_000)
	suite.Require().Error(err)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeSequencing))
}

func (suite *EquityRecorderTestSuite) TestRecordNormalizesDate() {
	point, err := suite.recorder.Record(day(1).Add(13*time.Hour), 100_000)
	suite.Require().NoError(err)
	suite.Assert().Equal(day(1), point.Date)
}

func (suite *EquityRecorderTestSuite) TestPointsIsCopied() {
	_, err := suite.recorder.Record(day(1), 100_000)
	suite.Require().NoError(err)

	points := suite.recorder.Points()
	points[0].Equity = 0

	suite.Assert().Equal(100_000.0, suite.recorder.Points()[0].Equity)
}
