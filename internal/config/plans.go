package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const UnknownPlanLabel = "Unknown Plan"

// DefaultPlanLabels is the catalog used when no plans file is mounted.
func DefaultPlanLabels() map[string]string {
	return map[string]string{
		"price_1PlV7fE8m3oia4xi6IAJxARU": "5 Dollars Per Month",
		"price_1PlVSxE8m3oia4xi8007EBw6": "12 Dollars After 3 months",
	}
}

type PlanCatalog struct {
	Labels map[string]string `mapstructure:"labels"`
}

// Label resolves a plan id to its display name. Ids must match exactly.
func (c PlanCatalog) Label(planID string) string {
	if label, ok := c.Labels[planID]; ok && planID != "" {
		return label
	}
	return UnknownPlanLabel
}

type PlanCatalogHolder struct {
	current atomic.Value // holds PlanCatalog
}

// NewStaticPlanCatalogHolder returns a holder that never reloads.
func NewStaticPlanCatalogHolder(labels map[string]string) *PlanCatalogHolder {
	holder := &PlanCatalogHolder{}
	holder.current.Store(PlanCatalog{Labels: labels})
	return holder
}

func NewPlanCatalogHolder(log *zap.Logger) (*PlanCatalogHolder, error) {
	log = log.Named("config.plans")
	v := viper.New()

	v.SetConfigName("plans")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/inkpost")
	v.AddConfigPath(".")

	v.SetEnvPrefix("INKPOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
		v.SetDefault("plans.labels", DefaultPlanLabels())
	}

	var catalog PlanCatalog
	if err := v.UnmarshalKey("plans", &catalog); err != nil {
		return nil, err
	}
	if err := validatePlanCatalog(catalog); err != nil {
		return nil, err
	}

	holder := &PlanCatalogHolder{}
	holder.current.Store(catalog)

	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PlanCatalog
		if err := v.UnmarshalKey("plans", &updated); err != nil {
			log.Warn("plan catalog reload failed", zap.Error(err))
			return
		}
		if err := validatePlanCatalog(updated); err != nil {
			log.Warn("invalid plan catalog ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("plan catalog reloaded", zap.String("file", e.Name), zap.Int("plans", len(updated.Labels)))
	})

	return holder, nil
}

func (h *PlanCatalogHolder) Get() PlanCatalog {
	return h.current.Load().(PlanCatalog)
}

func validatePlanCatalog(c PlanCatalog) error {
	if len(c.Labels) == 0 {
		return errors.New("plans.labels cannot be empty")
	}
	for id, label := range c.Labels {
		if strings.TrimSpace(id) == "" || strings.TrimSpace(label) == "" {
			return errors.New("plans.labels entries must have an id and a label")
		}
	}
	return nil
}
