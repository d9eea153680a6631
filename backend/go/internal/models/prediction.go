package models

import "time"

// UnknownPlantType 是未提供植物类型时使用的占位值。
const UnknownPlantType = "Unknown"

// GeoPoint 是一对经纬度坐标。
type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// PredictionRecord 代表一次病害识别的持久化记录。
// 记录只追加，创建后不会被修改或删除。
type PredictionRecord struct {
	ID              string    `bson:"_id" json:"id"`                                // 记录唯一ID (UUID)
	OwnerID         string    `bson:"owner_id" json:"ownerId"`                      // 创建记录的已验证用户ID
	ImageURL        string    `bson:"image_url" json:"imageUrl"`                    // 持久化图片的可访问 URL
	DiseaseDetected string    `bson:"disease_detected" json:"diseaseDetected"`      // 识别出的病害名称
	ConfidenceScore float64   `bson:"confidence_score" json:"confidenceScore"`      // 置信度 [0,1]
	PlantType       string    `bson:"plant_type" json:"plantType"`                  // 植物类型
	Location        *GeoPoint `bson:"location,omitempty" json:"location,omitempty"` // 可选的拍摄位置
	CreatedAt       time.Time `bson:"created_at" json:"createdAt"`                  // 写入时由存储层设置
	UpdatedAt       time.Time `bson:"updated_at" json:"updatedAt"`                  // 写入时由存储层设置
	Seq             int64     `bson:"seq" json:"-"`                                 // 同一时间戳下的插入顺序
}

// PredictionEventType 定义了记录事件的类型。
type PredictionEventType string

const (
	PredictionCreated PredictionEventType = "prediction.created"
)

// PredictionEvent 是记录创建后发送到 Kafka 的事件。
type PredictionEvent struct {
	Type       PredictionEventType `json:"type"`
	RecordID   string              `json:"record_id"`
	OwnerID    string              `json:"owner_id"`
	Disease    string              `json:"disease_detected"`
	PlantType  string              `json:"plant_type"`
	ImageURL   string              `json:"image_url"`
	OccurredAt time.Time           `json:"occurred_at"`
}

// NewPredictionCreatedEvent 根据已持久化的记录构造创建事件。
func NewPredictionCreatedEvent(r *PredictionRecord) PredictionEvent {
	return PredictionEvent{
		Type:       PredictionCreated,
		RecordID:   r.ID,
		OwnerID:    r.OwnerID,
		Disease:    r.DiseaseDetected,
		PlantType:  r.PlantType,
		ImageURL:   r.ImageURL,
		OccurredAt: r.CreatedAt,
	}
}
