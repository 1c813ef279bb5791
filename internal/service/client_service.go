package service

import (
	"context"
	"strings"

	"gitlab.com/yelinaung/invoiceflow/internal/models"
)

// ClientInput is the editable part of a client.
type ClientInput struct {
	Name          string              `json:"name" validate:"required,max=200"`
	Email         string              `json:"email" validate:"required,email,max=254"`
	Phone         string              `json:"phone" validate:"max=50"`
	Address       string              `json:"address" validate:"max=500"`
	CompanyID     string              `json:"company_id" validate:"max=50"`
	ContactPerson string              `json:"contact_person" validate:"max=200"`
	Notes         string              `json:"notes" validate:"max=2000"`
	Status        models.ClientStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (in ClientInput) normalize() ClientInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.CompanyID = strings.TrimSpace(in.CompanyID)
	if in.Status == "" {
		in.Status = models.ClientStatusActive
	}
	return in
}

func (in ClientInput) apply(c *models.Client) {
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.Address = in.Address
	c.CompanyID = in.CompanyID
	c.ContactPerson = in.ContactPerson
	c.Notes = in.Notes
	c.Status = in.Status
}

// ClientService manages the account's clients.
type ClientService struct {
	*base
}

// Create adds a client.
func (s *ClientService) Create(ctx context.Context, in ClientInput) (*models.Client, error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	in = in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	c := &models.Client{AccountID: accountID}
	in.apply(c)
	err = s.store.WithTx(ctx, func(tx Store) error {
		if err := tx.Clients().Create(ctx, c); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityClient, c.ID, "Client %s created", c.Name)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create client")
		return nil, err
	}
	s.changed(accountID)
	log.Info().Int64("client_id", c.ID).Msg("Client created")
	return c, nil
}

// Get returns a client.
func (s *ClientService) Get(ctx context.Context, id int64) (*models.Client, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Clients().Get(ctx, accountID, id)
}

// List returns the account's clients, newest first.
func (s *ClientService) List(ctx context.Context, filter models.ListFilter) ([]models.Client, error) {
	accountID, _, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Clients().List(ctx, accountID, filter)
}

// Update replaces the editable fields of a client.
func (s *ClientService) Update(ctx context.Context, id int64, in ClientInput) (*models.Client, error) {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	in = in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var c *models.Client
	err = s.store.WithTx(ctx, func(tx Store) error {
		c, err = tx.Clients().Get(ctx, accountID, id)
		if err != nil {
			return err
		}
		in.apply(c)
		if err := tx.Clients().Update(ctx, c); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityClient, c.ID, "Client %s updated", c.Name)
	})
	if err != nil {
		log.Error().Err(err).Int64("client_id", id).Msg("Failed to update client")
		return nil, err
	}
	s.changed(accountID)
	return c, nil
}

// Delete removes a client that no document or expense references.
func (s *ClientService) Delete(ctx context.Context, id int64) error {
	accountID, log, err := s.caller(ctx)
	if err != nil {
		return err
	}
	err = s.store.WithTx(ctx, func(tx Store) error {
		c, err := tx.Clients().Get(ctx, accountID, id)
		if err != nil {
			return err
		}
		if err := tx.Clients().Delete(ctx, accountID, id); err != nil {
			return err
		}
		return record(ctx, tx, accountID, models.ActivityClient, id, "Client %s deleted", c.Name)
	})
	if err != nil {
		log.Error().Err(err).Int64("client_id", id).Msg("Failed to delete client")
		return err
	}
	s.changed(accountID)
	return nil
}
