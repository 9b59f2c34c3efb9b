package repository

import (
	"github.com/yourconsultingltd/ycl-backend/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Contact     *ContactRepository
	Application *ApplicationRepository
	Newsletter  *NewsletterRepository
}

// NewRepositories builds every repository on the server's pool.
func NewRepositories(s *server.Server) *Repositories {
	return New(s.DB.Pool, s.DB)
}

// New builds the repositories on any DBTX.
func New(db DBTX, probe StatusProbe) *Repositories {
	return &Repositories{
		Contact:     NewContactRepository(db, probe),
		Application: NewApplicationRepository(db, probe),
		Newsletter:  NewNewsletterRepository(db, probe),
	}
}
