package service

import (
	"context"

	"ai-mentor-go/internal/model"
	"ai-mentor-go/pkg/es"
)

// SearchService 封装消息的全文检索。
// 索引写入是尽力而为的：失败由调用方决定是否只记日志。
type SearchService interface {
	IndexMessage(ctx context.Context, msg model.EsMessage) error
	SearchMessages(ctx context.Context, userID, query string, size int) ([]model.EsMessage, error)
}

type esSearchService struct {
	indexName string
}

// NewSearchService 创建一个基于 Elasticsearch 的 SearchService 实例。
func NewSearchService(indexName string) SearchService {
	return &esSearchService{indexName: indexName}
}

func (s *esSearchService) IndexMessage(ctx context.Context, msg model.EsMessage) error {
	return es.IndexMessage(ctx, s.indexName, msg)
}

func (s *esSearchService) SearchMessages(ctx context.Context, userID, query string, size int) ([]model.EsMessage, error) {
	return es.SearchMessages(ctx, s.indexName, userID, query, size)
}
