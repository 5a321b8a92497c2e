// Package persona holds the agent personas that shape classification and
// reply prompts.
package persona

import (
	"errors"
	"fmt"
	"os"
	"sync"

	apperrors "voice-agent-workers/internal/common/errors"

	"gopkg.in/yaml.v3"
)

const (
	DefaultName          = "AI Assistant"
	DefaultRole          = "customer support"
	DefaultCompany       = "our company"
	DefaultPersonality   = "helpful and professional"
	DefaultKnowledgeBase = "general customer service"
	DefaultIndustry      = "Technology"
	DefaultGreeting      = "Hello! How can I help you?"
)

type Persona struct {
	Key           string `yaml:"key" json:"key"`
	Name          string `yaml:"name" json:"name"`
	Role          string `yaml:"role" json:"role"`
	Company       string `yaml:"company" json:"company"`
	Personality   string `yaml:"personality" json:"personality"`
	KnowledgeBase string `yaml:"knowledge_base" json:"knowledge_base"`
	Industry      string `yaml:"industry" json:"industry"`
	Greeting      string `yaml:"greeting" json:"greeting"`
}

// WithDefaults fills every empty field with its generic default.
func (p Persona) WithDefaults() Persona {
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&p.Name, DefaultName)
	fill(&p.Role, DefaultRole)
	fill(&p.Company, DefaultCompany)
	fill(&p.Personality, DefaultPersonality)
	fill(&p.KnowledgeBase, DefaultKnowledgeBase)
	fill(&p.Industry, DefaultIndustry)
	fill(&p.Greeting, DefaultGreeting)
	return p
}

// Builtins are the templates served when no catalog file is configured.
func Builtins() []Persona {
	return []Persona{
		{
			Key:           "customer_support",
			Name:          "Sarah",
			Role:          "Customer Support Specialist",
			Company:       "TechCorp",
			Industry:      "Technology",
			Personality:   "Patient, empathetic, and solution-focused",
			KnowledgeBase: "Product support, troubleshooting, billing inquiries, technical assistance",
			Greeting:      "Hi! I'm Sarah, your customer support specialist. How can I help you today?",
		},
		{
			Key:           "sales_assistant",
			Name:          "Alex",
			Role:          "Sales Consultant",
			Company:       "SalesPro",
			Industry:      "Sales",
			Personality:   "Enthusiastic, persuasive, and knowledgeable",
			KnowledgeBase: "Product features, pricing, competitive analysis, sales processes",
			Greeting:      "Hello! I'm Alex, your sales consultant. Ready to find the perfect solution for your business?",
		},
		{
			Key:           "technical_expert",
			Name:          "Dr. Chen",
			Role:          "Technical Expert",
			Company:       "InnovateLab",
			Industry:      "Research & Development",
			Personality:   "Analytical, precise, and educational",
			KnowledgeBase: "Advanced technical concepts, research methodologies, implementation strategies",
			Greeting:      "Good day! I'm Dr. Chen, your technical expert. What technical challenge can I help you solve?",
		},
		{
			Key:           "voice_ai_specialist",
			Name:          "VoiceBot Pro",
			Role:          "Voice AI Specialist",
			Company:       "Conversa AI",
			Industry:      "AI Technology",
			Personality:   "Innovative, tech-savvy, and forward-thinking",
			KnowledgeBase: "Voice AI technology, speech recognition, natural language processing, conversational AI",
			Greeting:      "Hey there! I'm VoiceBot Pro, your Voice AI specialist. Let's explore the future of conversational AI together!",
		},
	}
}

// Catalog is a keyed set of personas with a fallback default.
type Catalog struct {
	mu         sync.RWMutex
	personas   map[string]Persona
	order      []string
	defaultKey string
}

type catalogFile struct {
	Default  string    `yaml:"default"`
	Personas []Persona `yaml:"personas"`
}

func NewCatalog(defaultKey string, personas ...Persona) *Catalog {
	c := &Catalog{personas: make(map[string]Persona), defaultKey: defaultKey}
	for _, p := range personas {
		c.Put(p)
	}
	return c
}

// LoadCatalog reads a YAML catalog. A missing file yields the built-ins.
// defaultKey overrides the file's default when set.
func LoadCatalog(path, defaultKey string) (*Catalog, error) {
	if path == "" {
		return NewCatalog(orDefault(defaultKey, "customer_support"), Builtins()...), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewCatalog(orDefault(defaultKey, "customer_support"), Builtins()...), nil
		}
		return nil, fmt.Errorf("read persona catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse persona catalog %s: %w", path, err)
	}
	for i, p := range file.Personas {
		if p.Key == "" {
			return nil, fmt.Errorf("persona catalog %s: entry %d has no key", path, i)
		}
	}

	return NewCatalog(orDefault(defaultKey, file.Default), file.Personas...), nil
}

// Put adds or replaces a persona.
func (c *Catalog) Put(p Persona) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.personas[p.Key]; !exists {
		c.order = append(c.order, p.Key)
	}
	c.personas[p.Key] = p
}

func (c *Catalog) Get(key string) (Persona, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.personas[key]
	if !ok {
		return Persona{}, apperrors.NewPersonaNotFoundError(key)
	}
	return p.WithDefaults(), nil
}

// Resolve returns the named persona, else the default, else a persona made
// only of defaults. It never fails.
func (c *Catalog) Resolve(key string) Persona {
	if p, err := c.Get(key); err == nil {
		return p
	}
	if p, err := c.Get(c.defaultKey); err == nil {
		return p
	}
	return Persona{Key: key}.WithDefaults()
}

func (c *Catalog) DefaultKey() string {
	return c.defaultKey
}

// List returns personas in insertion order.
func (c *Catalog) List() []Persona {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Persona, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.personas[key].WithDefaults())
	}
	return out
}

// Marshal renders the catalog in the file format LoadCatalog reads.
func (c *Catalog) Marshal() ([]byte, error) {
	c.mu.RLock()
	file := catalogFile{Default: c.defaultKey}
	for _, key := range c.order {
		file.Personas = append(file.Personas, c.personas[key])
	}
	c.mu.RUnlock()
	return yaml.Marshal(file)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
