package dataservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/burnwise/burnwise/internal/config"
	"github.com/burnwise/burnwise/pkg/amendment"
	"github.com/burnwise/burnwise/pkg/analytics"
	"github.com/burnwise/burnwise/pkg/expense"
	"github.com/burnwise/burnwise/pkg/project"
	"github.com/burnwise/burnwise/pkg/timeentry"
	"github.com/burnwise/burnwise/pkg/user"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const userIdHeader = "X-User-Id"

var ErrUnexpectedStatus = errors.New("data service returned unexpected status")

// Client reads project data from a running burnwise server. It implements
// analytics.Source so the analytics engine can run against a remote data service.
type Client struct {
	baseURL    string
	userId     string
	httpClient *http.Client
}

func NewClient(cfg config.DataService) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userId:     cfg.UserId,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// GetProjectData retrieves the raw analytics bundle of a project
func (c *Client) GetProjectData(ctx context.Context, projectId int) (analytics.ProjectData, error) {
	var response analytics.ProjectDataDTO
	if err := c.get(ctx, fmt.Sprintf("/api/projects/%d/analytics/source", projectId), &response); err != nil {
		return analytics.ProjectData{}, err
	}
	return analytics.DTOToProjectData(response), nil
}

// GetTimeEntries retrieves unvalidated time entries; the analytics engine validates them.
func (c *Client) GetTimeEntries(ctx context.Context, projectId int) ([]timeentry.RawEntry, error) {
	var response []timeentry.RawEntry
	if err := c.get(ctx, fmt.Sprintf("/api/projects/%d/time-entries", projectId), &response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Client) GetAmendments(ctx context.Context, projectId int) ([]amendment.ContractAmendment, error) {
	var response []amendment.AmendmentDTO
	if err := c.get(ctx, fmt.Sprintf("/api/projects/%d/amendments", projectId), &response); err != nil {
		return nil, err
	}
	amendments := make([]amendment.ContractAmendment, 0, len(response))
	for _, dto := range response {
		a, err := toAmendment(dto)
		if err != nil {
			log.Errorf("Failed to convert amendment %d: %v", dto.Id, err)
			return nil, err
		}
		amendments = append(amendments, a)
	}
	return amendments, nil
}

// GetExpenses retrieves every expense of the project, bypassing the default preset.
func (c *Client) GetExpenses(ctx context.Context, projectId int) ([]expense.Expense, error) {
	var response analytics.ExpenseListDTO
	if err := c.get(ctx, fmt.Sprintf("/api/projects/%d/expenses?preset=all", projectId), &response); err != nil {
		return nil, err
	}
	expenses := make([]expense.Expense, 0, len(response.Expenses))
	for _, dto := range response.Expenses {
		e, err := expense.DTOToExpense(dto)
		if err != nil {
			log.Errorf("Failed to convert expense %d: %v", dto.Id, err)
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		log.Errorf("Failed to create request: %v", err)
		return err
	}
	req.Header.Set("Accept", "application/json")
	if userId := c.requestUserId(ctx); userId != "" {
		req.Header.Set(userIdHeader, userId)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Errorf("Failed to execute request: %v", err)
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, project.ErrProjectNotFound)
	case resp.StatusCode != http.StatusOK:
		err := fmt.Errorf("%w: %d for %s", ErrUnexpectedStatus, resp.StatusCode, path)
		log.Error(err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		log.Errorf("Failed to decode response: %v", err)
		return err
	}
	return nil
}

// requestUserId prefers the configured user and falls back to the user of the request context.
func (c *Client) requestUserId(ctx context.Context) string {
	if c.userId != "" {
		return c.userId
	}
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return ""
	}
	return userId
}

func toAmendment(dto amendment.AmendmentDTO) (amendment.ContractAmendment, error) {
	a, err := amendment.DTOToAmendment(dto)
	if err != nil {
		return amendment.ContractAmendment{}, err
	}
	status, ok := amendment.ParseStatus(dto.Status)
	if !ok {
		return amendment.ContractAmendment{}, fmt.Errorf("unknown amendment status %q", dto.Status)
	}
	a.Status = status
	a.ApprovedAt = dto.ApprovedAt
	a.ApprovedBy = dto.ApprovedBy
	if dto.Reference != "" {
		reference, err := uuid.Parse(dto.Reference)
		if err != nil {
			return amendment.ContractAmendment{}, fmt.Errorf("invalid amendment reference %q: %w", dto.Reference, err)
		}
		a.Reference = reference
	}
	return a, nil
}
