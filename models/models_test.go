package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerName(t *testing.T) {
	testCases := []struct {
		name      string
		repo      RepositoryDescriptor
		wantOwner string
		wantName  string
		wantOK    bool
	}{
		{
			name:      "owner and name present",
			repo:      RepositoryDescriptor{Owner: "alphagov", Name: "govuk-frontend"},
			wantOwner: "alphagov",
			wantName:  "govuk-frontend",
			wantOK:    true,
		},
		{
			name:      "legacy org field",
			repo:      RepositoryDescriptor{Org: "alphagov", Name: "govuk-frontend"},
			wantOwner: "alphagov",
			wantName:  "govuk-frontend",
			wantOK:    true,
		},
		{
			name:      "owner takes precedence over org",
			repo:      RepositoryDescriptor{Owner: "new-owner", Org: "old-org", Name: "repo"},
			wantOwner: "new-owner",
			wantName:  "repo",
			wantOK:    true,
		},
		{
			name:      "derived from URL",
			repo:      RepositoryDescriptor{URL: "https://github.com/alphagov/govuk-frontend"},
			wantOwner: "alphagov",
			wantName:  "govuk-frontend",
			wantOK:    true,
		},
		{
			name:      "derived from URL with .git suffix",
			repo:      RepositoryDescriptor{URL: "https://github.com/alphagov/govuk-frontend.git"},
			wantOwner: "alphagov",
			wantName:  "govuk-frontend",
			wantOK:    true,
		},
		{
			name:      "derived from URL with trailing slash",
			repo:      RepositoryDescriptor{URL: "https://github.com/alphagov/govuk-frontend/"},
			wantOwner: "alphagov",
			wantName:  "govuk-frontend",
			wantOK:    true,
		},
		{
			name:      "name from field, owner from URL",
			repo:      RepositoryDescriptor{URL: "https://github.com/alphagov/ignored", Name: "explicit"},
			wantOwner: "alphagov",
			wantName:  "explicit",
			wantOK:    true,
		},
		{
			name:   "unusable URL",
			repo:   RepositoryDescriptor{URL: "nonsense"},
			wantOK: false,
		},
		{
			name:   "empty descriptor",
			repo:   RepositoryDescriptor{},
			wantOK: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			owner, name, ok := tc.repo.OwnerName()
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, tc.wantOwner, owner)
				assert.Equal(t, tc.wantName, name)
			}
		})
	}
}
