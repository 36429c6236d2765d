package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"megacoop-kyc/api"
	"megacoop-kyc/kyc"
	"megacoop-kyc/metrics"
	"megacoop-kyc/shared"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newClient(t *testing.T, handler http.HandlerFunc) (*api.Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m := metrics.New(prometheus.NewRegistry())
	c, err := api.New(api.Options{BaseURL: srv.URL + "/", Token: "secret-token", Metrics: m})
	require.NoError(t, err)
	return c, m
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := api.New(api.Options{})
	assert.ErrorIs(t, err, api.ErrMissingBaseURL)
}

func TestFetchStatus_Record(t *testing.T) {
	c, m := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, shared.PathStatus, r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)

		writeJSON(w, http.StatusOK, `{
			"success": true,
			"message": "KYC status retrieved",
			"data": {
				"nin": "verified",
				"bvn": "verified",
				"id_card": "pending",
				"proof_of_address": "not_verified",
				"face_recognition": "not_verified",
				"admin_approval": "not_verified"
			}
		}`)
	})

	rec, err := c.FetchStatus(context.Background())
	require.NoError(t, err)

	want := shared.InitialStatus()
	want.NIN = shared.StatusVerified
	want.BVN = shared.StatusVerified
	want.IDCard = shared.StatusPending
	assert.Equal(t, want, rec)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("status", metrics.OutcomeSuccess)))
}

func TestFetchStatus_NotStarted(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success": true, "message": "ok", "data": "KYC not started"}`)
	})

	_, err := c.FetchStatus(context.Background())
	assert.ErrorIs(t, err, api.ErrNotStarted)
}

func TestFetchStatus_MissingData(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success": true}`)
	})

	_, err := c.FetchStatus(context.Background())
	assert.ErrorIs(t, err, api.ErrNotStarted)
}

func TestErrors(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"success false", http.StatusOK, `{"success": false, "message": "Invalid NIN"}`, http.StatusOK, "Invalid NIN"},
		{"unprocessable", http.StatusUnprocessableEntity, `{"success": false, "message": "BVN already in use"}`, http.StatusUnprocessableEntity, "BVN already in use"},
		{"server error without body", http.StatusInternalServerError, ``, http.StatusInternalServerError, ""},
		{"html error page", http.StatusBadGateway, `<html>bad gateway</html>`, http.StatusBadGateway, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, m := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			})

			err := c.VerifyNIN(context.Background(), "12345678901")
			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tc.wantMsg, apiErr.UserMessage())
			assert.Equal(t, tc.wantMsg, kyc.UserMessage(err, ""))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("nin", metrics.OutcomeRejected)))
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := api.New(api.Options{BaseURL: url})
	require.NoError(t, err)

	err = c.StartFaceCapture(context.Background())
	require.Error(t, err)
	var apiErr *api.Error
	assert.False(t, errors.As(err, &apiErr))
}

func TestSubmit_JSONEndpoints(t *testing.T) {
	cases := []struct {
		sub      kyc.Submission
		wantPath string
		wantBody map[string]string
	}{
		{kyc.NINSubmission{NIN: "12345678901"}, shared.PathNIN, map[string]string{"nin": "12345678901"}},
		{kyc.BVNSubmission{BVN: "22345678901"}, shared.PathBVN, map[string]string{"bvn": "22345678901"}},
		{kyc.FaceSubmission{Image: frame}, shared.PathFaceSend, map[string]string{"image": frame}},
	}

	for _, tc := range cases {
		t.Run(tc.wantPath, func(t *testing.T) {
			c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tc.wantPath, r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var body map[string]string
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, tc.wantBody, body)
				writeJSON(w, http.StatusOK, `{"success": true, "message": "Verified"}`)
			})

			assert.NoError(t, c.Submit(context.Background(), tc.sub))
		})
	}
}

const frame = "data:image/png;base64,iVBORw0KGgo="

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestSubmit_IDCardMultipart(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, shared.PathIDCard, r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "drivers_license", r.FormValue("id_type"))

		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		assert.Equal(t, "licence.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		data, err := io.ReadAll(f)
		assert.NoError(t, err)
		assert.Equal(t, pngBytes, data)

		// Upload endpoints answer with any success shape.
		writeJSON(w, http.StatusCreated, `{"id": 42}`)
	})

	err := c.Submit(context.Background(), kyc.IDCardSubmission{
		IDType:   kyc.IDDriversLicense,
		Document: kyc.Document{Name: "licence.png", Data: pngBytes},
	})
	assert.NoError(t, err)
}

func TestSubmit_ProofOfAddressMultipart(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, shared.PathProofOfAddress, r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "12 Marina Road, Lagos", r.FormValue("address"))

		_, hdr, err := r.FormFile("file")
		if assert.NoError(t, err) {
			assert.Equal(t, "document", hdr.Filename)
		}
		writeJSON(w, http.StatusOK, `{"success": true}`)
	})

	err := c.UploadProofOfAddress(context.Background(), "12 Marina Road, Lagos", kyc.Document{Data: pngBytes})
	assert.NoError(t, err)
}

func TestStartFaceCapture(t *testing.T) {
	c, m := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, shared.PathFaceStart, r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{}`, string(body))
		writeJSON(w, http.StatusOK, `{"success": true, "data": {"session_id": "abc"}}`)
	})

	require.NoError(t, c.StartFaceCapture(context.Background()))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestSubmit_Unsupported(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	err := c.Submit(context.Background(), unknownSubmission{})
	assert.Error(t, err)
}

type unknownSubmission struct{}

func (unknownSubmission) StepNumber() int { return 9 }
