package repository

import (
	"github.com/openelects/candidatesbackend/models"
	"github.com/openelects/candidatesbackend/versions"
)

// PersonRepositoryInterface defines the methods for person data operations
type PersonRepositoryInterface interface {
	Create(person *models.Person, username, informationSource string) error
	GetByID(id uint) (*models.Person, error)
	ListAll() ([]models.Person, error)
	Update(person *models.Person, username, informationSource string) error
	History(personID uint) ([]versions.Version, error)
	FollowRedirects(id uint) (uint, bool, error)
	LogAction(action *models.LoggedAction) error
}

// ElectionRepositoryInterface defines the methods for election data operations
type ElectionRepositoryInterface interface {
	Create(election *models.Election) error
	GetBySlug(slug string) (*models.Election, error)
	ListAll() ([]models.Election, error)
	MarkCSVRequested(electionID uint) error
	MarkCSVProcessing(electionID uint) error
	SetCSVResult(electionID uint, csvPath *string, taskErr error) error
}

// ImageRepositoryInterface defines the methods for photo data operations
type ImageRepositoryInterface interface {
	CreateQueuedImage(queued *models.QueuedImage) error
	ListQueuedByPersonID(personID uint) ([]models.QueuedImage, error)
	CreatePersonImage(image *models.PersonImage) error
	UpdateThumbnailPath(imageID uint, thumbnailPath *string) error
}

// UserRepositoryInterface defines the methods for user data operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
}

var (
	_ PersonRepositoryInterface   = (*PersonRepository)(nil)
	_ ElectionRepositoryInterface = (*ElectionRepository)(nil)
	_ ImageRepositoryInterface    = (*ImageRepository)(nil)
	_ UserRepositoryInterface     = (*UserRepository)(nil)
)
