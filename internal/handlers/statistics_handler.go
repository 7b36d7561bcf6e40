package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"lorewiki-backend/internal/models"
	"lorewiki-backend/internal/title"
)

func GetStatistics(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		now := time.Now().UTC()

		var stats struct {
			TotalPages       int64 `json:"total_pages"`
			Articles         int64 `json:"articles"`
			Redirects        int64 `json:"redirects"`
			TotalFiles       int64 `json:"total_files"`
			TotalUsers       int64 `json:"total_users"`
			TotalRevisions   int64 `json:"total_revisions"`
			EditsLast24Hours int64 `json:"edits_last_24_hours"`
			EditsLast7Days   int64 `json:"edits_last_7_days"`
			UsersLast7Days   int64 `json:"users_last_7_days"`
			ActivePlugins    int64 `json:"active_plugins"`
		}

		db.Model(&models.Page{}).Count(&stats.TotalPages)
		db.Model(&models.Page{}).
			Where("namespace = ? AND is_redirect = ?", int(title.NamespaceMain), false).
			Count(&stats.Articles)
		db.Model(&models.Page{}).Where("is_redirect = ?", true).Count(&stats.Redirects)
		db.Model(&models.FileAsset{}).Count(&stats.TotalFiles)
		db.Model(&models.User{}).Count(&stats.TotalUsers)
		db.Model(&models.Revision{}).Count(&stats.TotalRevisions)
		db.Model(&models.Plugin{}).Where("active = ?", true).Count(&stats.ActivePlugins)

		twentyFourHoursAgo := now.Add(-24 * time.Hour)
		sevenDaysAgo := now.AddDate(0, 0, -7)

		db.Model(&models.Revision{}).
			Where("created_at >= ?", twentyFourHoursAgo).
			Count(&stats.EditsLast24Hours)
		db.Model(&models.Revision{}).
			Where("created_at >= ?", sevenDaysAgo).
			Count(&stats.EditsLast7Days)
		db.Model(&models.User{}).
			Where("created_at >= ?", sevenDaysAgo).
			Count(&stats.UsersLast7Days)

		var filesByType []struct {
			MimeMajor string `json:"mime_major"`
			Count     int64  `json:"count"`
		}
		db.Model(&models.FileAsset{}).
			Select("mime_major, COUNT(*) AS count").
			Group("mime_major").
			Order("count DESC").
			Scan(&filesByType)

		var recentChanges []struct {
			RevisionID uint      `json:"revision_id"`
			PageID     uint      `json:"page_id"`
			Title      string    `json:"title"`
			Namespace  int       `json:"namespace"`
			Summary    string    `json:"summary"`
			AuthorID   uint      `json:"author_id"`
			CreatedAt  time.Time `json:"created_at"`
		}
		db.Model(&models.Revision{}).
			Select("revisions.id AS revision_id, revisions.page_id, pages.title, pages.namespace, revisions.summary, revisions.author_id, revisions.created_at").
			Joins("JOIN pages ON pages.id = revisions.page_id AND pages.deleted_at IS NULL").
			Order("revisions.created_at DESC").
			Limit(10).
			Scan(&recentChanges)

		type timeBucket struct {
			Period time.Time
			Count  int64
		}

		startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		windowStart := startOfToday.AddDate(0, 0, -29)

		var editBuckets []timeBucket
		db.Model(&models.Revision{}).
			Select("DATE_TRUNC('day', created_at) AS period, COUNT(*) AS count").
			Where("created_at >= ?", windowStart).
			Group("period").
			Order("period").
			Scan(&editBuckets)

		editCounts := make(map[string]int64, len(editBuckets))
		for _, bucket := range editBuckets {
			key := bucket.Period.UTC().Format("2006-01-02")
			editCounts[key] = bucket.Count
		}

		activityTrend := make([]gin.H, 0, 30)
		for day := 0; day < 30; day++ {
			point := windowStart.AddDate(0, 0, day)
			key := point.Format("2006-01-02")
			activityTrend = append(activityTrend, gin.H{
				"period": point.Format(time.RFC3339),
				"edits":  editCounts[key],
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"statistics":     stats,
			"files_by_type":  filesByType,
			"recent_changes": recentChanges,
			"activity_trend": activityTrend,
		})
	}
}
