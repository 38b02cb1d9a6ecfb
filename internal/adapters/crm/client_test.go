package crm_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/cobj/internal/adapters/crm"
	"github.com/okian/cobj/internal/adapters/crm/crmtest"
	"github.com/okian/cobj/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	testToken = "pat-test-token"
	testType  = "2-51544776"
)

var testProps = []string{"name", "house", "family_type"}

func newClient(baseURL string, opts ...crm.Option) *crm.Client {
	opts = append([]crm.Option{crm.WithBaseURL(baseURL), crm.WithAccessToken(testToken)}, opts...)
	return crm.New(opts...)
}

func TestClientList(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given a fake CRM", t, func() {
		srv := crmtest.NewServer(testToken, testType)
		defer srv.Close()
		client := newClient(srv.URL)
		ctx := context.Background()

		Convey("When it holds no objects", func() {
			records, err := client.List(ctx, testType, testProps, 100)

			Convey("Then an empty, non-nil slice is returned", func() {
				So(err, ShouldBeNil)
				So(records, ShouldNotBeNil)
				So(records, ShouldBeEmpty)
			})

			Convey("And the request carries the bearer token, limit and property list", func() {
				req := srv.LastRequest()
				So(req.Method, ShouldEqual, http.MethodGet)
				So(req.Path, ShouldEqual, "/crm/v3/objects/2-51544776")
				So(req.Authorization, ShouldEqual, "Bearer "+testToken)
				So(req.Query["limit"], ShouldEqual, "100")
				So(req.Query["properties"], ShouldEqual, "name,house,family_type")
			})
		})

		Convey("When it holds objects", func() {
			srv.Seed(
				map[string]string{"name": "Rex", "house": "Oak", "family_type": "Dog"},
				map[string]string{"name": "Tom"},
			)
			records, err := client.List(ctx, testType, testProps, 100)

			Convey("Then they are returned in order with their properties", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 2)
				So(records[0].ID, ShouldNotBeBlank)
				So(records[0].Get("name"), ShouldEqual, "Rex")
				So(records[0].Get("family_type"), ShouldEqual, "Dog")
				So(records[0].CreatedAt.IsZero(), ShouldBeFalse)
			})

			Convey("And null properties decode as empty strings", func() {
				So(records[1].Get("house"), ShouldEqual, "")
				So(records[1].Properties, ShouldContainKey, "house")
			})
		})

		Convey("When more objects exist than the limit", func() {
			srv.Seed(map[string]string{"name": "a"}, map[string]string{"name": "b"}, map[string]string{"name": "c"})
			records, err := client.List(ctx, testType, testProps, 2)

			Convey("Then only limit objects are returned", func() {
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 2)
			})
		})

		Convey("When the response has no results array", func() {
			srv.OmitResults(true)
			records, err := client.List(ctx, testType, testProps, 100)

			Convey("Then an empty slice is returned", func() {
				So(err, ShouldBeNil)
				So(records, ShouldNotBeNil)
				So(records, ShouldBeEmpty)
			})
		})

		Convey("When the CRM fails", func() {
			srv.FailWith(http.StatusInternalServerError)
			records, err := client.List(ctx, testType, testProps, 100)

			Convey("Then an APIError is returned", func() {
				So(records, ShouldBeNil)
				So(errors.Is(err, crm.ErrRemoteStatus), ShouldBeTrue)

				var apiErr *crm.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.StatusCode, ShouldEqual, http.StatusInternalServerError)
				So(apiErr.Category, ShouldEqual, "INTERNAL_ERROR")
				So(apiErr.CorrelationID, ShouldNotBeBlank)
			})
		})

		Convey("When the token is wrong", func() {
			records, err := crm.New(crm.WithBaseURL(srv.URL), crm.WithAccessToken("nope")).
				List(ctx, testType, testProps, 100)

			Convey("Then a 401 APIError is returned", func() {
				So(records, ShouldBeNil)
				var apiErr *crm.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.StatusCode, ShouldEqual, http.StatusUnauthorized)
				So(apiErr.Error(), ShouldContainSubstring, "INVALID_AUTHENTICATION")
			})
		})

		Convey("When the object type is unknown", func() {
			_, err := client.List(ctx, "2-0", testProps, 100)

			Convey("Then a 400 APIError is returned", func() {
				var apiErr *crm.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestClientCreate(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given a fake CRM", t, func() {
		srv := crmtest.NewServer(testToken, testType)
		defer srv.Close()
		client := newClient(srv.URL + "/")
		ctx := context.Background()

		Convey("When creating an object", func() {
			values := map[string]string{"name": "Rex", "house": "Oak", "family_type": "Dog"}
			rec, err := client.Create(ctx, testType, values)

			Convey("Then the created record is returned", func() {
				So(err, ShouldBeNil)
				So(rec.ID, ShouldNotBeBlank)
				So(rec.Get("name"), ShouldEqual, "Rex")
			})

			Convey("And the request body carries exactly the given properties", func() {
				req := srv.LastRequest()
				So(req.Method, ShouldEqual, http.MethodPost)
				So(req.Path, ShouldEqual, "/crm/v3/objects/2-51544776")
				So(req.ContentType, ShouldEqual, "application/json")
				So(req.Authorization, ShouldEqual, "Bearer "+testToken)
				So(req.Properties, ShouldResemble, values)
			})

			Convey("And a following list includes it", func() {
				records, err := client.List(ctx, testType, testProps, 100)
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 1)
				So(records[0].ID, ShouldEqual, rec.ID)
			})
		})

		Convey("When the CRM rejects the create", func() {
			srv.FailWith(http.StatusBadRequest)
			_, err := client.Create(ctx, testType, map[string]string{"name": "x"})

			Convey("Then an APIError is returned and nothing is stored", func() {
				So(errors.Is(err, crm.ErrRemoteStatus), ShouldBeTrue)
				So(srv.Objects(), ShouldBeEmpty)
			})
		})
	})
}

func TestClientTransportErrors(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}

	Convey("Given an unreachable CRM", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		client := newClient(url)

		Convey("When listing", func() {
			_, err := client.List(context.Background(), testType, testProps, 100)

			Convey("Then a request error is returned", func() {
				So(errors.Is(err, crm.ErrRequest), ShouldBeTrue)
				So(errors.Is(err, crm.ErrRemoteStatus), ShouldBeFalse)
			})
		})
	})

	Convey("Given a slow CRM", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		Convey("When the client timeout is shorter", func() {
			client := newClient(srv.URL, crm.WithTimeout(20*time.Millisecond))
			_, err := client.List(context.Background(), testType, testProps, 100)

			Convey("Then the call fails as a request error", func() {
				So(errors.Is(err, crm.ErrRequest), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := newClient(srv.URL).List(ctx, testType, testProps, 100)

			Convey("Then the call fails with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given a CRM that answers with garbage", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"results": [`))
		}))
		defer srv.Close()

		Convey("When listing", func() {
			_, err := newClient(srv.URL).List(context.Background(), testType, testProps, 100)

			Convey("Then a decode error is returned", func() {
				So(errors.Is(err, crm.ErrDecode), ShouldBeTrue)
			})
		})
	})

	Convey("Given a CRM that fails with a plain text body", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		}))
		defer srv.Close()

		Convey("When listing", func() {
			_, err := newClient(srv.URL).List(context.Background(), testType, testProps, 100)

			Convey("Then the raw body is kept on the APIError", func() {
				var apiErr *crm.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.StatusCode, ShouldEqual, http.StatusBadGateway)
				So(apiErr.Body, ShouldEqual, "upstream exploded")
				So(apiErr.Error(), ShouldContainSubstring, "upstream exploded")
			})
		})
	})
}
