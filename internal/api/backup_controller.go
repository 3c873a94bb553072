package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lchampz/saas-bakery/internal/logger"
	"github.com/lchampz/saas-bakery/internal/services"
)

const MsgBackupCreated = "Backup criado com sucesso"

// BackupController is mounted behind the admin role
type BackupController struct {
	backupService *services.BackupService
	logger        *logger.Logger
}

func NewBackupController(backupService *services.BackupService, log *logger.Logger) *BackupController {
	return &BackupController{backupService: backupService, logger: log}
}

// POST /backup/create
func (bc *BackupController) CreateBackup(c *gin.Context) {
	backup, err := bc.backupService.Snapshot(c.Request.Context())
	if err != nil {
		RespondError(c, bc.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, MsgBackupCreated, backup)
}

// GET /backup/download
func (bc *BackupController) DownloadBackup(c *gin.Context) {
	backup, err := bc.backupService.Snapshot(c.Request.Context())
	if err != nil {
		RespondError(c, bc.logger, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+backup.Filename())
	c.JSON(http.StatusOK, backup)
}
