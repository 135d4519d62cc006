package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/account"
	"github.com/trezcool/shule/core/submission"
	"github.com/trezcool/shule/tests"
)

func TestSubmissionReview(t *testing.T) {
	f := setup(t)
	courseID := testutil.CreateCourse(t, f.db, "Physics")
	assignmentID := testutil.CreateAssignment(t, f.db, courseID, "Homework 1")

	student := f.token(t, testutil.CreateAccount(t, f.db, account.RoleStudent, "Kid", "kid", "kid@test.cd", ""))
	other := f.token(t, testutil.CreateAccount(t, f.db, account.RoleStudent, "Kid 2", "kid2", "kid2@test.cd", ""))
	teacher := f.token(t, testutil.CreateAccount(t, f.db, account.RoleTeacher, "Teach", "teach", "teach@test.cd", ""))
	submitPath := "/v1/assignments/" + itoa(assignmentID) + "/submissions"

	f.run(t, []httpTest{
		{name: "teacher submits", method: http.MethodPost, path: submitPath, token: teacher, body: echoMap{"content_kind": "text", "content": "x"}, wantCode: http.StatusForbidden},
		{name: "invalid kind", method: http.MethodPost, path: submitPath, token: student, body: echoMap{"content_kind": "video", "content": "x"}, wantCode: http.StatusBadRequest},
		{name: "unknown assignment", method: http.MethodPost, path: "/v1/assignments/999999/submissions", token: student, body: echoMap{"content_kind": "text", "content": "x"}, wantCode: http.StatusNotFound},
	})

	rec := f.do(t, http.MethodPost, submitPath, student, echoMap{"content_kind": "link", "content": "https://example.com/hw1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var s submission.Submission
	decode(t, rec, &s)
	assert.Equal(t, submission.StatusPending, s.Status)
	assert.False(t, s.Result.Valid)

	path := "/v1/submissions/" + itoa(s.ID)
	f.run(t, []httpTest{
		{name: "owner", method: http.MethodGet, path: path, token: student, wantCode: http.StatusOK},
		{name: "teacher", method: http.MethodGet, path: path, token: teacher, wantCode: http.StatusOK},
		{name: "other student", method: http.MethodGet, path: path, token: other, wantCode: http.StatusForbidden},
		{name: "student assesses", method: http.MethodPost, path: path + "/assess", token: student, body: echoMap{"status": "approved", "result": "pass"}, wantCode: http.StatusForbidden},
		{name: "missing result", method: http.MethodPost, path: path + "/assess", token: teacher, body: echoMap{"status": "approved"}, wantCode: http.StatusBadRequest},
		{name: "assess", method: http.MethodPost, path: path + "/assess", token: teacher, body: echoMap{"status": "rejected", "result": "fail", "feedback": "try again"}, wantCode: http.StatusOK},
		{name: "assess again", method: http.MethodPost, path: path + "/assess", token: teacher, body: echoMap{"status": "approved", "result": "pass"}, wantCode: http.StatusConflict},
	})

	rec = f.do(t, http.MethodGet, path, student, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &s)
	assert.Equal(t, submission.StatusRejected, s.Status)
	assert.Equal(t, "fail", s.Result.String)
	assert.Equal(t, "try again", s.Feedback.String)
}
