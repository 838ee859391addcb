package repository

import (
	"context"

	"github.com/forgo/finance-fixtures/internal/database"
	"github.com/forgo/finance-fixtures/internal/model"
)

// CreateStudy creates a study owned by a program
func (s *SurrealStore) CreateStudy(ctx context.Context, study *model.Study) error {
	query := `
		CREATE study CONTENT {
			name: $name,
			program: type::record($program),
			created_on: time::now(),
			inserted_on: time::now()
		}
	`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"name":    study.Name,
		"program": study.ProgramID,
	})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	study.ID = created.ID
	study.CreatedOn = created.CreatedOn
	return nil
}

// GetStudy retrieves a study by ID
func (s *SurrealStore) GetStudy(ctx context.Context, id string) (*model.Study, error) {
	results, err := s.db.Query(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	study, err := decodeOne[model.Study](results)
	return study, wrapNotFound(err, "study", id)
}

// CreateSite creates a site owned by a user
func (s *SurrealStore) CreateSite(ctx context.Context, site *model.Site) error {
	query := `
		CREATE site CONTENT {
			primary_name: $primary_name,
			user: type::record($user),
			address: IF $address IS NOT NULL THEN type::record($address) ELSE NONE END,
			created_on: time::now(),
			inserted_on: time::now()
		}
	`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"primary_name": site.PrimaryName,
		"user":         site.UserID,
		"address":      nilIfEmpty(site.AddressID),
	})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	site.ID = created.ID
	site.CreatedOn = created.CreatedOn
	return nil
}

// GetSite retrieves a site by ID
func (s *SurrealStore) GetSite(ctx context.Context, id string) (*model.Site, error) {
	results, err := s.db.Query(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	site, err := decodeOne[model.Site](results)
	return site, wrapNotFound(err, "site", id)
}

// CreateSiteStudy links a site to a study
func (s *SurrealStore) CreateSiteStudy(ctx context.Context, link *model.SiteStudy) error {
	query := `CREATE site_study CONTENT { site: type::record($site), study: type::record($study) }`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"site":  link.SiteID,
		"study": link.StudyID,
	})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	link.ID = created.ID
	return nil
}

// CreateSiteCoordinator creates a coordinator with its initial study links
func (s *SurrealStore) CreateSiteCoordinator(ctx context.Context, coordinator *model.SiteCoordinator) error {
	query := `
		CREATE site_coordinator CONTENT {
			user: type::record($user),
			site: type::record($site),
			studies: array::map($studies, |$s| type::record($s))
		}
	`
	studies := make([]interface{}, 0, len(coordinator.StudyIDs))
	for _, id := range coordinator.StudyIDs {
		studies = append(studies, id)
	}
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"user":    coordinator.UserID,
		"site":    coordinator.SiteID,
		"studies": studies,
	})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	coordinator.ID = created.ID
	return nil
}

// AddCoordinatorStudy links one more study to a coordinator
func (s *SurrealStore) AddCoordinatorStudy(ctx context.Context, coordinatorID, studyID string) error {
	query := `UPDATE type::record($coordinator) SET studies = array::union(studies ?? [], [type::record($study)])`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"coordinator": coordinatorID,
		"study":       studyID,
	})
	if err != nil {
		return err
	}
	if _, err := database.FirstRecord(results); err != nil {
		return wrapNotFound(err, "site_coordinator", coordinatorID)
	}
	return nil
}

// CreateCardholder creates a cardholder enrolled at a site
func (s *SurrealStore) CreateCardholder(ctx context.Context, cardholder *model.Cardholder) error {
	query := `
		CREATE cardholder CONTENT {
			first_name: $first_name,
			last_name: $last_name,
			site: type::record($site),
			user: type::record($user),
			created_on: time::now(),
			inserted_on: time::now()
		}
	`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"first_name": cardholder.Firstname,
		"last_name":  cardholder.Lastname,
		"site":       cardholder.SiteID,
		"user":       cardholder.UserID,
	})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	cardholder.ID = created.ID
	cardholder.CreatedOn = created.CreatedOn
	return nil
}

// GetCardholder retrieves a cardholder by ID
func (s *SurrealStore) GetCardholder(ctx context.Context, id string) (*model.Cardholder, error) {
	results, err := s.db.Query(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	ch, err := decodeOne[model.Cardholder](results)
	return ch, wrapNotFound(err, "cardholder", id)
}

// CreateAppointment creates a scheduled visit
func (s *SurrealStore) CreateAppointment(ctx context.Context, appointment *model.Appointment) error {
	query := `
		CREATE appointment CONTENT {
			cardholder: type::record($cardholder),
			study: type::record($study),
			scheduled: <datetime>$scheduled,
			created_by: type::record($created_by),
			created_on: IF $created_on IS NOT NULL THEN <datetime>$created_on ELSE time::now() END,
			inserted_on: time::now()
		}
	`
	results, err := s.db.Query(ctx, query, map[string]interface{}{
		"cardholder": appointment.CardholderID,
		"study":      appointment.StudyID,
		"scheduled":  timeVar(appointment.Scheduled),
		"created_by": appointment.CreatedBy,
		"created_on": zeroableTime(appointment.CreatedOn),
	})
	if err != nil {
		return err
	}
	created, err := extractCreatedRecord(results)
	if err != nil {
		return err
	}
	appointment.ID = created.ID
	if appointment.CreatedOn.IsZero() {
		appointment.CreatedOn = created.CreatedOn
	}
	return nil
}
