package results

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/teamsite/pkg/logger"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/team/frc9999/events/2024", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(authHeader) != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		zw := gzip.NewWriter(w)
		_ = json.NewEncoder(zw).Encode([]Event{
			{Key: "2024casj", Name: "Silicon Valley Regional", City: "San Jose", StateProv: "CA", Country: "USA", StartDate: "2024-04-01", EndDate: "2024-04-03"},
		})
		_ = zw.Close()
	})
	mux.HandleFunc("/team/frc9999/event/2024casj/awards", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]Award{{Name: "Impact Award", EventKey: "2024casj", Year: 2024}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	Convey("Given a results API that gzips its answers", t, func() {
		srv := fakeAPI(t)
		hc := NewHTTPClient(time.Second, "", logger.Nop())

		Convey("When listing events with the right key", func() {
			c := NewClient(srv.URL+"/", "secret", hc)
			events, err := c.TeamEvents(ctx, "frc9999", 2024)

			Convey("Then the body is decompressed and decoded", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 1)
				So(events[0].Key, ShouldEqual, "2024casj")
				So(events[0].Location(), ShouldEqual, "San Jose, CA, USA")
			})
		})

		Convey("When the key is wrong", func() {
			c := NewClient(srv.URL, "nope", hc)
			_, err := c.TeamEvents(ctx, "frc9999", 2024)

			Convey("Then the error matches ErrUnauthorized", func() {
				So(errors.Is(err, ErrUnauthorized), ShouldBeTrue)
				var apiErr *APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the path is unknown", func() {
			c := NewClient(srv.URL, "secret", hc)
			_, err := c.EventAwards(ctx, "frc9999", "2024nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When awards are requested", func() {
			c := NewClient(srv.URL, "secret", hc)
			awards, err := c.EventAwards(ctx, "frc9999", "2024casj")
			So(err, ShouldBeNil)
			So(awards[0].Name, ShouldEqual, "Impact Award")
		})
	})
}
