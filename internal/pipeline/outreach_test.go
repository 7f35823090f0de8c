package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/artifact"
	"github.com/sells-group/prospector/internal/fault"
	"github.com/sells-group/prospector/internal/model"
)

func acmeRecord() model.PrioritizedCustomer {
	return model.PrioritizedCustomer{
		CompanyName:         "Acme Corp",
		Industry:            "Manufacturing",
		Revenue:             "$25M",
		Size:                "120",
		StakeholderName:     "Dana Lee",
		StakeholderPosition: "COO",
	}
}

func TestOutreach_WritesEmail(t *testing.T) {
	r := new(mockReasoner)
	r.On("Complete", mock.Anything, mock.MatchedBy(func(c Call) bool {
		return c.Stage == StageOutreach &&
			strings.Contains(c.Prompt.User, `"company_name": "Acme Corp"`) &&
			strings.Contains(c.Prompt.User, "We sell sensors")
	})).Return("  Subject: Hello Acme\n\nDear Dana,\n...  \n", nil)

	p, store := newTestPipeline(t, false, r, failingFirecrawl{t})
	seed(t, store, artifact.CompanyProfile, "We sell sensors")

	res, err := p.Outreach(context.Background(), acmeRecord())
	require.NoError(t, err)
	assert.Equal(t, "Personalized outreach email generated.", res.Message)
	assert.Equal(t, "Subject: Hello Acme\n\nDear Dana,\n...", res.Email)

	content, err := store.ReadRaw(res.OutputFile)
	require.NoError(t, err)
	var doc model.OutreachEmail
	require.NoError(t, json.Unmarshal([]byte(content), &doc))
	assert.Equal(t, res.Email, doc.Email)
	r.AssertExpectations(t)
}

func TestOutreach_MissingProfile(t *testing.T) {
	p, _ := newTestPipeline(t, false, failingReasoner{t}, failingFirecrawl{t})

	_, err := p.Outreach(context.Background(), acmeRecord())
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
}

func TestOutreach_MissingProfileInDebug(t *testing.T) {
	p, _ := newTestPipeline(t, true, failingReasoner{t}, failingFirecrawl{t})

	_, err := p.Outreach(context.Background(), acmeRecord())
	assert.Equal(t, fault.NotFound, fault.KindOf(err))
}

func TestOutreach_RequiresCompanyName(t *testing.T) {
	p, store := newTestPipeline(t, false, failingReasoner{t}, failingFirecrawl{t})
	seed(t, store, artifact.CompanyProfile, "profile")

	rec := acmeRecord()
	rec.CompanyName = ""
	_, err := p.Outreach(context.Background(), rec)
	assert.Equal(t, fault.InvalidInput, fault.KindOf(err))
}

func TestOutreach_EmptyReply(t *testing.T) {
	r := new(mockReasoner)
	r.On("Complete", mock.Anything, stageCall(StageOutreach)).Return(" \n", nil)

	p, store := newTestPipeline(t, false, r, failingFirecrawl{t})
	seed(t, store, artifact.CompanyProfile, "profile")

	_, err := p.Outreach(context.Background(), acmeRecord())
	assert.Equal(t, fault.MalformedResponse, fault.KindOf(err))
}

func TestOutreach_UpstreamFailure(t *testing.T) {
	r := new(mockReasoner)
	r.On("Complete", mock.Anything, stageCall(StageOutreach)).Return("", errors.New("overloaded"))

	p, store := newTestPipeline(t, false, r, failingFirecrawl{t})
	seed(t, store, artifact.CompanyProfile, "profile")

	_, err := p.Outreach(context.Background(), acmeRecord())
	assert.Equal(t, fault.UpstreamFailure, fault.KindOf(err))
	r.AssertNumberOfCalls(t, "Complete", 1)
}

func TestOutreach_Debug(t *testing.T) {
	p, store := newTestPipeline(t, true, failingReasoner{t}, failingFirecrawl{t})
	seed(t, store, artifact.CompanyProfile, "profile")

	res, err := p.Outreach(context.Background(), acmeRecord())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Message, "(DEBUG)"))
	assert.Empty(t, res.Email)

	seed(t, store, artifact.OutreachEmail, `{"message":"Personalized outreach email generated.","email":"cached body"}`)
	res, err = p.Outreach(context.Background(), acmeRecord())
	require.NoError(t, err)
	assert.Equal(t, "cached body", res.Email)
}

func TestOutreach_DebugCorruptCacheWarns(t *testing.T) {
	logs := observeWarnings(t)
	p, store := newTestPipeline(t, true, failingReasoner{t}, failingFirecrawl{t})
	seed(t, store, artifact.CompanyProfile, "profile")
	seed(t, store, artifact.OutreachEmail, "not json")

	res, err := p.Outreach(context.Background(), acmeRecord())
	require.NoError(t, err)
	assert.Empty(t, res.Email)
	assert.Equal(t, 1, logs.FilterMessage("pipeline: cached artifact unreadable").Len())
}
