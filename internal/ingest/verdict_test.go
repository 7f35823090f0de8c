package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/model"
)

func items(t *testing.T, s string) []json.RawMessage {
	t.Helper()
	var out []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(s), &out))
	return out
}

func TestCheckEvents(t *testing.T) {
	events, sum := CheckEvents(items(t, `[
		{"name":"Expo","url":"https://expo.org","category":"Exhibitions"},
		{"name":"No URL","category":"News"},
		"just a string",
		{"name":"Odd","url":"https://odd.org","category":"Podcasts"},
		[1, 2]
	]`))

	require.Len(t, events, 2)
	assert.Equal(t, model.CandidateEvent{Name: "Expo", URL: "https://expo.org", Category: model.CategoryExhibitions}, events[0])
	assert.Equal(t, model.EventCategory("Podcasts"), events[1].Category)

	assert.Equal(t, 2, sum.Accepted)
	assert.Equal(t, 3, sum.Skipped())
	assert.Equal(t, Verdict{Index: 1, Reason: SkipMissingFields, Missing: []string{"url"}}, sum.Verdicts[1])
	assert.Equal(t, SkipNotObject, sum.Verdicts[2].Reason)
	assert.Equal(t, SkipNotObject, sum.Verdicts[4].Reason)
}

func TestCheckCustomers_OptionalFieldsDefault(t *testing.T) {
	msgs := make([]json.RawMessage, 10)
	for i := range msgs {
		rec := `{"company_name":"Co","industry":"Film","revenue":"$5M","size":"20","stakeholder_email":"a@b.com"}`
		if i < 2 {
			rec = `{"company_name":"Co","industry":"Film","revenue":"$5M","size":"20"}`
		}
		msgs[i] = json.RawMessage(rec)
	}

	customers, sum := CheckCustomers(msgs)
	assert.Len(t, customers, 10)
	assert.Zero(t, sum.Skipped())
	assert.Equal(t, "", customers[0].StakeholderEmail)
	assert.Equal(t, "a@b.com", customers[9].StakeholderEmail)
}

func TestCheckCustomers_MissingCompanyNameDropped(t *testing.T) {
	customers, sum := CheckCustomers(items(t, `[
		{"company_name":"Acme","industry":"Film","revenue":"$5M","size":"20"},
		{"industry":"Film","revenue":"$5M","size":"20"}
	]`))
	assert.Len(t, customers, 1)
	assert.Equal(t, 1, sum.Skipped())
	assert.Equal(t, []string{"company_name"}, sum.Verdicts[1].Missing)
}

func TestCheckCustomers_ValueRendering(t *testing.T) {
	customers, _ := CheckCustomers(items(t, `[
		{"company_name":"Acme","industry":null,"revenue":25000000,"size":{"employees": 120},"reasoning":true}
	]`))
	require.Len(t, customers, 1)
	c := customers[0]
	assert.Equal(t, "", c.Industry)
	assert.Equal(t, "25000000", c.Revenue)
	assert.Equal(t, `{"employees":120}`, c.Size)
	assert.Equal(t, "true", c.Reasoning)
}

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"plain"`, "plain"},
		{`"<b>&</b>"`, "<b>&</b>"},
		{`null`, ""},
		{`12.5`, "12.5"},
		{`[ 1, 2 ]`, "[1,2]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, text(json.RawMessage(tt.in)))
		})
	}
	assert.Equal(t, "", text(nil))
}
