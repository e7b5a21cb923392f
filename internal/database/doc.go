// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), migrations
//	├── authors/         # Author CRUD and the delete guard
//	├── books/           # Book CRUD, search and cover persistence
//	└── audit/           # Audit trail
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase(database.Options{Driver: "sqlite", Path: "./librarian.db"})
//
//	authorsRepo := authors.NewRepository(db.DB)
//	booksRepo := books.NewRepository(db.DB, coverAdapter)
//
//	author, err := authorsRepo.Create(ctx, "Ursula K. Le Guin")
//	list, err := booksRepo.List(ctx, search.BookFilter{Title: search.Some("sea")})
//
// # Errors
//
// Repositories return the taxonomy in internal/entities: ErrNotFound,
// *ValidationError, ErrConflict and *StorageError. Callers match them with
// errors.Is.
//
// # Referential integrity
//
// Foreign key constraints are not created by migrations. Book writes check
// that the referenced author exists, and author deletes refuse while books
// still reference the author.
package database
