// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - AuthorStore: Author CRUD (internal/http/stores.go)
//   - BookStore: Book CRUD and listings (internal/http/stores.go)
//   - ReferenceLister: Cover file names still referenced by books (internal/covers/sweep.go)
//
// ## Cover Interfaces
//
//   - FileStore: Where the file cover strategy keeps uploads, on disk or in
//     a MinIO bucket (internal/covers/store.go)
//   - CoverAdapter: Applies a submitted cover to a book before it is saved
//     (internal/database/books/repository.go)
//   - CoverServer: Streams a book's cover to the client (internal/http/stores.go)
//
// ## Background Work
//
//   - CoverSweeper, SweepRecorder: Orphan cover sweep and its audit record
//     (internal/tasks/sweep_covers.go)
//   - AuditEventCleaner: Audit retention (internal/tasks/cleanup_audit.go)
//   - Enqueuer: Scheduled jobs that only enqueue tasks (internal/scheduler)
//
// # Adding a New Cover Store
//
// To keep cover files somewhere else (e.g., S3 through another SDK):
//
//  1. Implement FileStore in internal/covers/
//
//     type S3Store struct {
//         client *s3.Client
//         bucket string
//     }
//
//     func (s *S3Store) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
//     func (s *S3Store) Open(ctx context.Context, name string) (io.ReadCloser, error)
//     func (s *S3Store) Delete(ctx context.Context, name string) error
//     func (s *S3Store) List(ctx context.Context) ([]StoredFile, error)
//
//  2. Select it in entrypoint/components.go from COVER_STORE
//
//  3. Add a compile-time check to checks.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
