package rest_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobCreate(t *testing.T) {
	ts := newTestServer(t)
	token, _ := login(t, ts.r, "jobmaker")

	putJSON(ts.r, "/api/me", map[string]string{"full_name": "Jane Doe"}, "Authorization", "Bearer "+token)

	w := postJSON(ts.r, "/api/jobs", map[string]interface{}{
		"title":    "Smith Residence Water Damage",
		"priority": "urgent",
		"metadata": map[string]string{"claim_ref": "CL-1234"},
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	job := resp["job"].(map[string]interface{})
	assert.Equal(t, "Smith Residence Water Damage", job["title"])
	assert.Equal(t, "active", job["job_status"])
	assert.Equal(t, "urgent", job["priority"])
	assert.Equal(t, "Jane Doe", job["assigned_to"])
	assert.Equal(t, "Jane Doe", job["supervisor"])
}

func TestJobCreate_FallsBackToUsername(t *testing.T) {
	ts := newTestServer(t)
	token, _ := login(t, ts.r, "anonjobber")

	w := postJSON(ts.r, "/api/jobs", map[string]interface{}{
		"title": "Quick Assessment",
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	job := resp["job"].(map[string]interface{})
	assert.Equal(t, "anonjobber", job["assigned_to"])
	assert.Equal(t, "medium", job["priority"])
}

func TestJobCreate_InvalidPriority(t *testing.T) {
	ts := newTestServer(t)
	token, _ := login(t, ts.r, "badprio")

	w := postJSON(ts.r, "/api/jobs", map[string]interface{}{
		"title":    "Job",
		"priority": "critical",
	}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJobsList_StatsAndOrder(t *testing.T) {
	ts := newTestServer(t)
	token, _ := login(t, ts.r, "jobslister")

	for _, title := range []string{"First", "Second", "Third"} {
		w := postJSON(ts.r, "/api/jobs", map[string]interface{}{"title": title}, "Authorization", "Bearer "+token)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doReq(ts.r, http.MethodGet, "/api/jobs", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	jobs := resp["jobs"].([]interface{})
	require.Len(t, jobs, 3)
	assert.Equal(t, "Third", jobs[0].(map[string]interface{})["title"])

	stats := resp["stats"].(map[string]interface{})
	assert.Equal(t, float64(3), stats["active"])
	assert.Equal(t, float64(0), stats["completed"])
}

func TestJobUpdate_Status(t *testing.T) {
	ts := newTestServer(t)
	token, _ := login(t, ts.r, "jobupdater")

	w := postJSON(ts.r, "/api/jobs", map[string]interface{}{"title": "Job"}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	jobID := decodeBody(t, w)["job"].(map[string]interface{})["id"].(float64)

	w2 := putJSON(ts.r, "/api/jobs/"+itoa(int64(jobID)), map[string]string{
		"job_status": "completed",
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w2.Code)
	job := decodeBody(t, w2)["job"].(map[string]interface{})
	assert.Equal(t, "completed", job["job_status"])

	w3 := putJSON(ts.r, "/api/jobs/"+itoa(int64(jobID)), map[string]string{
		"job_status": "archived",
	}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w3.Code)
}

func TestJobs_ScopedToAccount(t *testing.T) {
	ts := newTestServer(t)
	token1, _ := login(t, ts.r, "jobowner")
	token2, _ := login(t, ts.r, "jobother")

	postJSON(ts.r, "/api/jobs", map[string]interface{}{"title": "Private Job"}, "Authorization", "Bearer "+token1)

	w := doReq(ts.r, http.MethodGet, "/api/jobs", "Authorization", "Bearer "+token2)
	resp := decodeBody(t, w)
	assert.Empty(t, resp["jobs"])
}
