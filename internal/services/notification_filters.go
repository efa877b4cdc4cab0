package services

import (
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/apartment/internal/database"
	"github.com/charlesng35/apartment/internal/models"
	"github.com/charlesng35/apartment/pkg/metrics"
)

// Sort orders accepted by the history listing.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// Filter types accepted by the history listing. Each role accepts a subset.
const (
	FilterAll          = "all"
	FilterToMe         = "to_me"
	FilterFromResident = "from_resident"
	FilterFromAdmin    = "from_admin"
	FilterToManager    = "to_manager"
	FilterByManager    = "by_manager"
	FilterToAdmin      = "to_admin"
	FilterByAdmin      = "by_admin"
)

// User-facing messages for malformed filters.
const (
	MessageInvalidMonth = "Invalid month format."
	MessageInvalidDate  = "Invalid date format."
)

const notificationSenderJoin = "JOIN users AS senders ON senders.id = notifications.sender_id"

var roleFilterTypes = map[string][]string{
	models.RoleResident:         {FilterToMe},
	models.RoleApartmentManager: {FilterAll, FilterFromResident, FilterFromAdmin, FilterToManager, FilterByManager},
	models.RoleAdmin:            {FilterAll, FilterToAdmin, FilterByAdmin},
}

// HistoryQuery carries the raw query parameters of a history request.
type HistoryQuery struct {
	SortBy      string `form:"sort_by"`
	FilterType  string `form:"filter_type"`
	FilterMonth string `form:"filter_month"`
	FilterDate  string `form:"filter_date"`
	SearchQuery string `form:"search_query"`
	Page        string `form:"page"`
}

// HistoryFilters echoes the effective filters of a history listing.
type HistoryFilters struct {
	SortBy      string `json:"sort_by"`
	FilterType  string `json:"filter_type"`
	FilterMonth string `json:"filter_month"`
	FilterDate  string `json:"filter_date"`
	SearchQuery string `json:"search_query"`
}

// FilterTypesFor lists the filter types a role may choose from.
func FilterTypesFor(role string) []string {
	types := roleFilterTypes[role]
	out := make([]string, len(types))
	copy(out, types)
	return out
}

func normaliseSort(value string) string {
	if value == SortOldest {
		return SortOldest
	}
	return SortNewest
}

func normaliseFilterType(role, value string) string {
	if role == models.RoleResident {
		return FilterToMe
	}
	for _, allowed := range roleFilterTypes[role] {
		if allowed == value {
			return value
		}
	}
	return FilterAll
}

// applyScope restricts the query to the notifications a viewer may see. The
// query must already join the sender as "senders".
func applyScope(query *gorm.DB, viewer Viewer) *gorm.DB {
	switch viewer.Role {
	case models.RoleResident:
		return query.Where("notifications.receiver_id = ?", viewer.UserID)
	case models.RoleApartmentManager:
		return query.Where(
			"(notifications.receiver_id IS NULL AND senders.role_id = ?) OR notifications.receiver_id = ? OR notifications.sender_id = ?",
			models.RoleResident, viewer.UserID, viewer.UserID,
		)
	default: // admins and users without a recognised role
		return query.Where("notifications.receiver_id = ? OR notifications.sender_id = ?", viewer.UserID, viewer.UserID)
	}
}

// applyMarkReadScope restricts the query to the notifications a user may mark
// as read regardless of role: resident broadcasts, anything sent by an admin
// and notifications the user sent or received.
func applyMarkReadScope(query *gorm.DB, userID string) *gorm.DB {
	return query.Where(
		"(notifications.receiver_id IS NULL AND senders.role_id = ?) OR senders.role_id = ? OR notifications.receiver_id = ? OR notifications.sender_id = ?",
		models.RoleResident, models.RoleAdmin, userID, userID,
	)
}

func applyFilterType(query *gorm.DB, viewer Viewer, filterType string) *gorm.DB {
	switch filterType {
	case FilterFromResident:
		return query.Where("notifications.receiver_id IS NULL AND senders.role_id = ?", models.RoleResident)
	case FilterFromAdmin:
		return query.Where("senders.role_id = ?", models.RoleAdmin)
	case FilterToManager, FilterToAdmin:
		return query.Where("notifications.receiver_id = ?", viewer.UserID)
	case FilterByManager, FilterByAdmin:
		return query.Where("notifications.sender_id = ?", viewer.UserID)
	default:
		return query
	}
}

// timeRange is a half-open [Start, End) interval in UTC.
type timeRange struct {
	Start time.Time
	End   time.Time
}

// parseMonth accepts "YEAR-MONTH" made of exactly two integers.
func parseMonth(value string, loc *time.Location) (timeRange, bool) {
	parts := strings.Split(value, "-")
	if len(parts) != 2 {
		return timeRange{}, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || year < 1 || year > 9999 {
		return timeRange{}, false
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || month < 1 || month > 12 {
		return timeRange{}, false
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return timeRange{Start: start.UTC(), End: start.AddDate(0, 1, 0).UTC()}, true
}

// parseDay accepts "YYYY-MM-DD"; month and day may omit their leading zero.
func parseDay(value string, loc *time.Location) (timeRange, bool) {
	day, err := time.ParseInLocation("2006-1-2", value, loc)
	if err != nil {
		return timeRange{}, false
	}
	return timeRange{Start: day.UTC(), End: day.AddDate(0, 0, 1).UTC()}, true
}

func applyRange(query *gorm.DB, r timeRange) *gorm.DB {
	return query.Where("notifications.created_at >= ? AND notifications.created_at < ?", r.Start, r.End)
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

var searchColumns = []string{"notifications.title", "notifications.message", "senders.full_name"}

// searchCondition returns a case-insensitive match of column against a bound
// pattern for the query's dialect.
func searchCondition(dialect, column string) string {
	switch dialect {
	case "postgres":
		return column + " ILIKE ? ESCAPE '!'"
	case "mysql":
		// default utf8mb4 collations compare case-insensitively
		return column + " LIKE ? ESCAPE '!'"
	case "sqlite":
		return database.CaseFoldFunction + "(" + column + ") LIKE " + database.CaseFoldFunction + "(?) ESCAPE '!'"
	default:
		return "LOWER(" + column + ") LIKE LOWER(?) ESCAPE '!'"
	}
}

func applySearch(query *gorm.DB, term string) *gorm.DB {
	pattern := "%" + likeEscaper.Replace(term) + "%"

	dialect := ""
	if query.Dialector != nil {
		dialect = query.Dialector.Name()
	}

	conditions := make([]string, 0, len(searchColumns))
	args := make([]any, 0, len(searchColumns))
	for _, column := range searchColumns {
		conditions = append(conditions, searchCondition(dialect, column))
		args = append(args, pattern)
	}
	return query.Where(strings.Join(conditions, " OR "), args...)
}

func orderClause(sortBy string) string {
	if sortBy == SortOldest {
		return "notifications.created_at ASC, notifications.id ASC"
	}
	return "notifications.created_at DESC, notifications.id DESC"
}

// historyCriteria is the parsed form of a HistoryQuery.
type historyCriteria struct {
	filters HistoryFilters
	month   *timeRange
	day     *timeRange
	errors  []string
}

func parseHistoryQuery(viewer Viewer, query HistoryQuery, loc *time.Location) historyCriteria {
	criteria := historyCriteria{
		filters: HistoryFilters{
			SortBy:      normaliseSort(query.SortBy),
			FilterType:  normaliseFilterType(viewer.Role, query.FilterType),
			FilterMonth: query.FilterMonth,
			FilterDate:  query.FilterDate,
			SearchQuery: query.SearchQuery,
		},
	}

	if query.FilterMonth != "" {
		if r, ok := parseMonth(query.FilterMonth, loc); ok {
			criteria.month = &r
		} else {
			criteria.errors = append(criteria.errors, MessageInvalidMonth)
			metrics.FilterRejections.WithLabelValues("filter_month").Inc()
		}
	}

	if query.FilterDate != "" {
		if r, ok := parseDay(query.FilterDate, loc); ok {
			criteria.day = &r
		} else {
			criteria.errors = append(criteria.errors, MessageInvalidDate)
			metrics.FilterRejections.WithLabelValues("filter_date").Inc()
		}
	}

	return criteria
}

func (c historyCriteria) apply(query *gorm.DB, viewer Viewer) *gorm.DB {
	query = applyFilterType(query, viewer, c.filters.FilterType)
	if c.month != nil {
		query = applyRange(query, *c.month)
	}
	if c.day != nil {
		query = applyRange(query, *c.day)
	}
	if c.filters.SearchQuery != "" {
		query = applySearch(query, c.filters.SearchQuery)
	}
	return query
}
