package postings

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Posting is one job opening recovered from free text.
type Posting struct {
	Role        string   `json:"role" mapstructure:"role" validate:"required"`
	Experience  string   `json:"experience,omitempty" mapstructure:"experience"`
	Skills      []string `json:"skills,omitempty" mapstructure:"skills"`
	Description string   `json:"description" mapstructure:"description" validate:"required"`
}

type Postings struct {
	Items []*Posting `json:"postings"`
}

func (p *Postings) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// Exclude drops every posting matched by drop and returns the removed roles.
func (p *Postings) Exclude(drop func(*Posting) bool) []string {
	var excluded []string
	kept := p.Items[:0]
	for _, posting := range p.Items {
		if drop(posting) {
			excluded = append(excluded, posting.Role)
			continue
		}
		kept = append(kept, posting)
	}
	p.Items = kept
	return excluded
}

// Titles returns one human readable line per posting for selection menus.
func (p *Postings) Titles() []string {
	titles := make([]string, 0, p.Len())
	for i, posting := range p.Items {
		title := fmt.Sprintf("%d. %s", i+1, posting.Role)
		if posting.Experience != "" {
			title += fmt.Sprintf(" (%s)", posting.Experience)
		}
		titles = append(titles, title)
	}
	return titles
}

// Fingerprint identifies a posting by its normalized role and description.
func (p *Posting) Fingerprint() string {
	key := strings.ToLower(strings.Join(strings.Fields(p.Role), " ")) + "\x00" +
		strings.ToLower(strings.Join(strings.Fields(p.Description), " "))
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum[:])
}

// JobDescription is the text a resume is matched against: the description,
// else the role, else the whole record as JSON.
func (p *Posting) JobDescription() string {
	if desc := strings.TrimSpace(p.Description); desc != "" {
		return desc
	}
	if role := strings.TrimSpace(p.Role); role != "" {
		return role
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%+v", *p)
	}
	return string(data)
}

func (p *Posting) normalize() {
	p.Role = strings.TrimSpace(p.Role)
	p.Experience = strings.TrimSpace(p.Experience)
	p.Description = strings.TrimSpace(p.Description)

	seen := make(map[string]struct{}, len(p.Skills))
	skills := make([]string, 0, len(p.Skills))
	for _, skill := range p.Skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, skill)
	}
	p.Skills = skills
}
