package inference

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewClient("http://model.local/", hc)
}

func TestPredict_ObjectCure(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodPost, "http://model.local/predict",
		func(req *http.Request) (*http.Response, error) {
			f, fh, err := req.FormFile("image")
			if err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, `{"error":"No image uploaded"}`), nil
			}
			defer f.Close()
			data, _ := io.ReadAll(f)
			if fh.Filename != "leaf.jpg" || string(data) != "jpegbytes" {
				return httpmock.NewStringResponse(http.StatusBadRequest, `{"error":"unexpected upload"}`), nil
			}
			return httpmock.NewStringResponse(http.StatusOK,
				`{"prediction":"Tomato___Late_blight","cure_info":{"symptoms":"dark lesions","cure":"copper fungicide","prevention":"rotate crops"}}`), nil
		})

	p, err := c.Predict(context.Background(), "leaf.jpg", strings.NewReader("jpegbytes"))
	require.NoError(t, err)
	assert.Equal(t, "Tomato___Late_blight", p.Label)
	assert.Equal(t, "copper fungicide", p.Cure.Cure)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestPredict_StringCure(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodPost, "http://model.local/predict",
		httpmock.NewStringResponder(http.StatusOK, `{"prediction":"Healthy","cure_info":"Could not fetch AI cure. Please consult an expert."}`))

	p, err := c.Predict(context.Background(), "leaf.png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "Could not fetch AI cure. Please consult an expert.", p.Cure.Text)
	assert.Empty(t, p.Cure.Cure)
}

func TestCureInfo_StringifiedObject(t *testing.T) {
	var ci CureInfo
	require.NoError(t, ci.UnmarshalJSON([]byte(`"{\"symptoms\":\"spots\",\"cure\":\"neem oil\"}"`)))
	assert.Equal(t, "spots", ci.Symptoms)
	assert.Equal(t, "neem oil", ci.Cure)
}

func TestPredict_Errors(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodPost, "http://model.local/predict",
		httpmock.NewStringResponder(http.StatusBadRequest, `{"error":"No image uploaded"}`))

	_, err := c.Predict(context.Background(), "leaf.png", strings.NewReader("x"))
	assert.ErrorContains(t, err, "No image uploaded")

	httpmock.RegisterResponder(http.MethodPost, "http://model.local/predict",
		httpmock.NewStringResponder(http.StatusOK, `{"prediction":""}`))
	_, err = c.Predict(context.Background(), "leaf.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNoPrediction)
}

func TestChat(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodPost, "http://model.local/chat",
		httpmock.NewStringResponder(http.StatusOK, `{"response":"Water in the morning."}`))

	answer, err := c.Chat(context.Background(), "When should I water tomatoes?")
	require.NoError(t, err)
	assert.Equal(t, "Water in the morning.", answer)
}
