package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReport_Failed(t *testing.T) {
	r := &RunReport{Stages: []StageReport{
		{Name: "crawl", Status: StageStatusComplete},
		{Name: "profile", Status: StageStatusComplete},
	}}
	assert.False(t, r.Failed())

	r.Stages = append(r.Stages, StageReport{Name: "events", Status: StageStatusFailed})
	assert.True(t, r.Failed())
}

func TestEventsResult_NullParsedData(t *testing.T) {
	data, err := json.Marshal(EventsResult{Message: "m", OutputFile: "f"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"m","output_file":"f","parsed_data":null}`, string(data))
}

func TestStoredCustomer_FlattensRecord(t *testing.T) {
	c := StoredCustomer{ID: 7, PrioritizedCustomer: PrioritizedCustomer{CompanyName: "Acme"}}
	data, err := json.Marshal(c)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "Acme", m["company_name"])
	assert.EqualValues(t, 7, m["id"])
}
