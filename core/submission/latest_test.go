package submission

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/core"
)

func TestLatest(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 1, d, 12, 0, 0, 0, time.UTC) }
	subs := []Submission{
		{ID: 1, AssignmentID: 1, StudentID: 1, SubmissionDate: day(1), Status: StatusReturned},
		{ID: 2, AssignmentID: 1, StudentID: 1, SubmissionDate: day(3), Status: StatusSubmitted},
		{ID: 3, AssignmentID: 1, StudentID: 2, SubmissionDate: day(2), Status: StatusGraded},
		{ID: 4, AssignmentID: 2, StudentID: 1, SubmissionDate: day(2), Status: StatusSubmitted},
		{ID: 5, AssignmentID: 2, StudentID: 1, SubmissionDate: day(2), Status: StatusReturned}, // same date, greater id
		{ID: 6, AssignmentID: 1, StudentID: 1, SubmissionDate: day(2), Status: StatusGraded},   // out of order
	}

	tests := []struct {
		name         string
		assignmentID core.ID
		studentID    core.ID
		wantID       core.ID
		wantOK       bool
	}{
		{name: "later date wins over insertion order", assignmentID: 1, studentID: 1, wantID: 2, wantOK: true},
		{name: "single submission", assignmentID: 1, studentID: 2, wantID: 3, wantOK: true},
		{name: "same date: greater id wins", assignmentID: 2, studentID: 1, wantID: 5, wantOK: true},
		{name: "none", assignmentID: 2, studentID: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Latest(subs, tt.assignmentID, tt.studentID)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}

	latest := LatestPerAssignmentStudent(subs)
	ids := make([]core.ID, 0, len(latest))
	for _, s := range latest {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []core.ID{2, 3, 5}, ids)

	total, pending := Counters(subs, 1)
	assert.Equal(t, 4, total)
	assert.Equal(t, 1, pending)
	assert.Len(t, FilterByStudent(subs, 1), 5)
	assert.Len(t, FilterByAssignment(subs, 2), 2)
}

func TestValidateScore(t *testing.T) {
	tests := []struct {
		name    string
		score   int
		max     int
		wantErr bool
	}{
		{name: "zero", score: 0, max: 100},
		{name: "max", score: 100, max: 100},
		{name: "negative", score: -1, max: 100, wantErr: true},
		{name: "over max", score: 101, max: 100, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScore(tt.score, tt.max)
			if tt.wantErr {
				assert.True(t, core.IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := ParseScore("8.5")
	assert.True(t, core.IsValidationError(err))
	score, err := ParseScore(" 85 ")
	require.NoError(t, err)
	assert.Equal(t, 85, score)
}

func TestSubmission_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantStatus Status
		wantLegacy string
		wantSize   int64
		wantErr    bool
	}{
		{name: "canonical", data: `{"status":"graded","fileSize":1024}`, wantStatus: StatusGraded, wantSize: 1024},
		{name: "legacy graded", data: `{"status":"Зачтена"}`, wantStatus: StatusGraded, wantLegacy: "Зачтена"},
		{name: "legacy returned", data: `{"status":"возвращена"}`, wantStatus: StatusReturned, wantLegacy: "возвращена"},
		{name: "legacy submitted", data: `{"status":"на проверке"}`, wantStatus: StatusSubmitted, wantLegacy: "на проверке"},
		{name: "display size", data: `{"status":"submitted","fileSize":"1,5 KB"}`, wantStatus: StatusSubmitted, wantSize: 1536},
		{name: "unknown status", data: `{"status":" pending "}`, wantStatus: "pending"},
		{name: "numeric status", data: `{"status":7}`, wantStatus: "7"},
		{name: "missing status", data: `{"id":1}`, wantStatus: ""},
		{name: "invalid size", data: `{"status":"submitted","fileSize":"big"}`, wantStatus: StatusSubmitted},
		{name: "not an object", data: `"submitted"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Submission
			err := json.Unmarshal([]byte(tt.data), &s)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, s.Status)
			assert.Equal(t, tt.wantLegacy, s.LegacyStatus())
			assert.Equal(t, tt.wantSize, s.FileSize)
		})
	}

	t.Run("collection with odd records", func(t *testing.T) {
		var subs []Submission
		data := `[{"id":1,"status":"submitted"},{"id":-2,"status":"lol","fileSize":"?"},{"id":"3","status":"graded","score":5}]`
		require.NoError(t, json.Unmarshal([]byte(data), &subs))
		require.Len(t, subs, 3)
		assert.False(t, subs[1].Status.Valid())
		assert.Equal(t, "lol", subs[1].Status.Label())
		assert.Equal(t, core.ID(0), subs[1].ID)
		assert.Equal(t, core.ID(3), subs[2].ID)
		assert.Equal(t, StatusGraded, subs[2].Status)
	})
}
