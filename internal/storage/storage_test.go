package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal/storage"
	"github.com/frahmantamala/medical-filemanager/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const testSecret = "media-signing-secret-for-tests-0123456789"

var _ = Describe("Object paths", func() {
	It("lays objects out by day with a sanitized name", func() {
		at := time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)
		path := storage.ObjectPath("Lab Report (final).PDF", at)

		Expect(path).To(HavePrefix("files/2025/03/04/"))
		Expect(path).To(HaveSuffix("_Lab_Report_final.pdf"))
	})

	DescribeTable("SafeName",
		func(in, want string) {
			Expect(storage.SafeName(in)).To(Equal(want))
		},
		Entry("plain", "scan.png", "scan.png"),
		Entry("directory traversal", "../../etc/passwd", "passwd"),
		Entry("windows path", `C:\docs\x-ray.jpg`, "x-ray.jpg"),
		Entry("nothing usable", "***.txt", "file.txt"),
	)

	It("names thumbnails after the original file", func() {
		Expect(storage.ThumbnailName("Chest Scan.PNG")).To(Equal("thumb_Chest_Scan.jpg"))
		Expect(storage.ThumbnailName("../x-ray.jpeg")).To(Equal("thumb_x-ray.jpg"))
	})
})

var _ = DescribeTable("ContentDisposition",
	func(contentType, expected string) {
		Expect(storage.ContentDisposition("files/2025/01/02/abc_report", contentType)).To(HavePrefix(expected))
	},
	Entry("pdf", "application/pdf", "inline"),
	Entry("png with parameters", "image/png; charset=binary", "inline"),
	Entry("video", "video/mp4", "inline"),
	Entry("svg", "image/svg+xml", "attachment"),
	Entry("html", "text/html; charset=utf-8", "attachment"),
	Entry("unknown", "application/octet-stream", "attachment"),
	Entry("malformed", "", "attachment"),
)

var _ = Describe("Signer", func() {
	var signer *storage.Signer

	BeforeEach(func() {
		signer = storage.NewSigner(testSecret, "http://localhost:8080/")
	})

	It("issues a link that verifies for its own path only", func() {
		link, err := signer.Sign("files/2025/01/01/a.pdf", time.Minute)
		Expect(err).NotTo(HaveOccurred())
		Expect(link).To(HavePrefix("http://localhost:8080/media/files/2025/01/01/a.pdf?token="))

		u, err := url.Parse(link)
		Expect(err).NotTo(HaveOccurred())
		token := u.Query().Get("token")

		Expect(signer.Verify("files/2025/01/01/a.pdf", token)).To(Succeed())
		Expect(signer.Verify("files/2025/01/01/b.pdf", token)).To(MatchError(storage.ErrInvalidMediaToken))
	})

	It("rejects expired tokens", func() {
		link, err := signer.Sign("a.pdf", -time.Minute)
		Expect(err).NotTo(HaveOccurred())
		u, _ := url.Parse(link)

		Expect(signer.Verify("a.pdf", u.Query().Get("token"))).To(MatchError(storage.ErrInvalidMediaToken))
	})

	It("rejects tokens signed with another secret", func() {
		other := storage.NewSigner("another-secret-another-secret-0123456789", "")
		link, err := other.Sign("a.pdf", time.Minute)
		Expect(err).NotTo(HaveOccurred())
		u, _ := url.Parse(link)

		Expect(signer.Verify("a.pdf", u.Query().Get("token"))).To(MatchError(storage.ErrInvalidMediaToken))
	})
})

var _ = Describe("Local backend", func() {
	var (
		dir    string
		local  *storage.Local
		signer *storage.Signer
		ctx    context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		signer = storage.NewSigner(testSecret, "")
		local, err = storage.NewLocal(dir, signer, time.Minute)
		Expect(err).NotTo(HaveOccurred())
	})

	It("stores the exact bytes with their checksum", func() {
		data := []byte("%PDF-1.4 lab results")
		obj, err := local.Upload(ctx, data, "results.pdf", "application/pdf")
		Expect(err).NotTo(HaveOccurred())

		Expect(obj.Size).To(Equal(int64(len(data))))
		Expect(obj.Checksum).To(Equal(storage.Checksum(data)))
		Expect(obj.URL).To(HavePrefix("/media/" + obj.Path + "?token="))

		onDisk, err := os.ReadFile(filepath.Join(dir, obj.Path))
		Expect(err).NotTo(HaveOccurred())
		Expect(onDisk).To(Equal(data))

		_, err = os.Stat(filepath.Join(dir, obj.Path) + ".tmp")
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("opens what it stored", func() {
		obj, err := local.Upload(ctx, []byte("hello"), "note.txt", "text/plain")
		Expect(err).NotTo(HaveOccurred())

		rc, err := local.Open(ctx, obj.Path)
		Expect(err).NotTo(HaveOccurred())
		defer rc.Close()
		content, err := io.ReadAll(rc)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(Equal("hello"))
	})

	It("treats deleting a missing object as success", func() {
		obj, err := local.Upload(ctx, []byte("x"), "x.txt", "text/plain")
		Expect(err).NotTo(HaveOccurred())

		Expect(local.Delete(ctx, obj.Path)).To(Succeed())
		Expect(local.Delete(ctx, obj.Path)).To(Succeed())

		_, err = local.Open(ctx, obj.Path)
		Expect(err).To(MatchError(storage.ErrObjectNotFound))
	})

	It("never resolves paths outside its directory", func() {
		_, err := local.Open(ctx, "../../../etc/passwd")
		Expect(err).To(HaveOccurred())
	})

	It("refuses to work with a cancelled context", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := local.Upload(cancelled, []byte("x"), "x.txt", "text/plain")
		Expect(err).To(MatchError(context.Canceled))
	})

	Describe("MediaHandler", func() {
		var router chi.Router

		BeforeEach(func() {
			handler := storage.NewMediaHandler(transport.NewBaseHandler(nil), local, signer)
			router = chi.NewRouter()
			router.Get("/media/*", handler.Serve)
		})

		It("streams a blob behind a valid link", func() {
			obj, err := local.Upload(ctx, []byte("image-bytes"), "scan.png", "image/png")
			Expect(err).NotTo(HaveOccurred())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, obj.URL, nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("image/png"))
			Expect(rec.Header().Get("Content-Disposition")).To(Equal("inline"))
			Expect(rec.Header().Get("Content-Security-Policy")).To(BeEmpty())
			Expect(rec.Body.String()).To(Equal("image-bytes"))
		})

		It("serves scriptable images as a sandboxed download", func() {
			svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(document.cookie)</script></svg>`)
			obj, err := local.Upload(ctx, svg, "chart.svg", "image/svg+xml")
			Expect(err).NotTo(HaveOccurred())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, obj.URL, nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Disposition")).To(HavePrefix("attachment"))
			Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("chart.svg"))
			Expect(rec.Header().Get("Content-Security-Policy")).To(ContainSubstring("sandbox"))
			Expect(rec.Header().Get("X-Content-Type-Options")).To(Equal("nosniff"))
		})

		It("rejects a tampered token", func() {
			obj, err := local.Upload(ctx, []byte("image-bytes"), "scan.png", "image/png")
			Expect(err).NotTo(HaveOccurred())

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, strings.Split(obj.URL, "?")[0]+"?token=bogus", nil))

			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})
	})
})
