package report

import (
	"context"
	"strings"
	"time"

	"github.com/nexusdash/analyst-service/internal/model"
)

// mockDelay preserves the illusion of computation for UI pacing.
const mockDelay = 1 * time.Second

// techKeywords classifies a query into the technology/EV archetype via
// case-sensitive substring match. Anything unmatched gets the construction
// archetype. Deliberately coarse: this is demo data, not a sector model.
var techKeywords = []string{"科技", "宁德", "Apple", "特斯拉", "TSLA"}

// MockSource is the deterministic, query-keyed fallback report generator.
type MockSource struct {
	delay time.Duration
}

// NewMockSource creates a fallback source with the standard artificial delay.
func NewMockSource() *MockSource {
	return &MockSource{delay: mockDelay}
}

// NewInstantMockSource skips the artificial delay. Used by tests.
func NewInstantMockSource() *MockSource {
	return &MockSource{}
}

// Report returns a fully populated demo report for the query. It always
// succeeds; the delay is cut short if the context is cancelled.
func (m *MockSource) Report(ctx context.Context, query string) *model.Report {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
		}
	}

	for _, kw := range techKeywords {
		if strings.Contains(query, kw) {
			return techArchetype()
		}
	}
	return constructionArchetype()
}

func techArchetype() *model.Report {
	return &model.Report{
		Title:       "宁德时代 (300750.SZ) 深度研报",
		Ticker:      "300750.SZ",
		Rating:      model.RatingBuy,
		RatingScore: 88,
		Summary:     "全球动力电池绝对龙头，市占率稳居 35% 以上。神行电池与麒麟电池技术壁垒深厚，海外市场渗透率持续超预期。尽管二线厂商价格战激烈，但公司凭借规模效应与供应链管控，盈利能力依然强劲。",
		Reasoning:   "逻辑推演 (Demo)：\n1. 市场地位：全球第一，无可撼动，规模效应带来极低成本。\n2. 技术面：神行超充电池量产，技术代差维持在 1-2 年，护城河极深。\n3. 财务面：现金流极好，且碳酸锂价格下行利好毛利率修复。\n4. 风险点：地缘政治（美国市场受阻）是最大隐忧，但欧洲市场增长可对冲。\n5. 结论：当前估值处于历史低位区间，具备长期配置价值。",
		Swot: model.SwotAnalysis{
			Strengths:     []string{"全球市占率第一 (36.8%)", "极强的供应链议价能力", "研发投入行业领先"},
			Weaknesses:    []string{"地缘政治风险（北美市场）", "国内储能市场内卷严重"},
			Opportunities: []string{"欧洲电动化渗透率提升", "储能业务爆发式增长"},
			Threats:       []string{"固态电池技术颠覆风险", "整车厂自研电池趋势"},
		},
		Competitors: []model.Competitor{
			{Name: "宁德时代", Revenue: "¥4009亿", MarketCap: "¥7800亿", PERatio: "18.5"},
			{Name: "比亚迪", Revenue: "¥6023亿", MarketCap: "¥6200亿", PERatio: "21.2"},
			{Name: "LG Energy", Revenue: "¥1800亿", MarketCap: "¥4100亿", PERatio: "45.3"},
		},
		Sections: []model.Section{
			{Heading: "业绩韧性分析", Content: "Q3 归母净利润同比增长 10.5%，毛利率修复至 22% 以上，主要得益于碳酸锂成本下降及产能利用率提升。单位 Wh 盈利保持稳定，显示出极强的抗周期能力。"},
			{Heading: "技术壁垒与新品", Content: "发布的神行超充电池已在奇瑞、阿维塔等多款车型量产，构建了差异化竞争优势。麒麟电池在高端车型（如理想 Mega）上的应用进一步巩固了品牌溢价。"},
		},
		ChartType: "line",
		ChartData: []model.ChartPoint{
			{Name: "23 Q4", Value: 110},
			{Name: "24 Q1", Value: 98},
			{Name: "24 Q2", Value: 105},
			{Name: "24 Q3", Value: 120},
			{Name: "24 Q4 (E)", Value: 135},
		},
		KeyMetrics: []model.KeyMetric{
			{Label: "毛利率", Value: "22.9%", Trend: "up"},
			{Label: "全球市占率", Value: "36.8%", Trend: "neutral"},
			{Label: "研发投入", Value: "¥180亿", Trend: "up"},
			{Label: "PE (TTM)", Value: "18.5x", Trend: "down"},
		},
		Sources: []model.Source{
			{Title: "宁德时代官网", URI: "https://www.catl.com"},
			{Title: "巨潮资讯网", URI: "http://www.cninfo.com.cn"},
		},
		IsMock: true,
	}
}

func constructionArchetype() *model.Report {
	return &model.Report{
		Title:       "陕西建工 (600248.SH) 投资价值分析",
		Ticker:      "600248.SH",
		Rating:      model.RatingHold,
		RatingScore: 62,
		Summary:     "西北地区建筑龙头，受益于西部大开发及\"一带一路\"战略。营收规模稳健，但受房地产行业下行拖累，应收账款回款周期拉长，现金流承压。当前估值处于历史低位，具备防御属性。",
		Reasoning:   "分析逻辑 (Demo)：\n1. 基本面：营收虽有增长，但质量一般，现金流差是建筑行业通病。\n2. 宏观面：西部大开发是长期利好，但短期房地产下行压力大。\n3. 估值面：PE 不到 4 倍，股息率接近 5%，安全边际很高。\n4. 结论：短期难有大行情，但下跌空间有限，适合作为高股息防御性配置。",
		Swot: model.SwotAnalysis{
			Strengths:     []string{"省属国企背景，拿单能力强", "全产业链资质完备", "分红比例逐年提升"},
			Weaknesses:    []string{"资产负债率较高 (88%+)", "应收账款规模大，坏账风险"},
			Opportunities: []string{"城市更新与城中村改造政策红利", "海外工程业务拓展"},
			Threats:       []string{"原材料价格大幅波动", "地方财政紧张导致的回款延期"},
		},
		Competitors: []model.Competitor{
			{Name: "陕西建工", Revenue: "¥1890亿", MarketCap: "¥145亿", PERatio: "3.8"},
			{Name: "中国建筑", Revenue: "¥2.2万亿", MarketCap: "¥2300亿", PERatio: "4.2"},
			{Name: "四川路桥", Revenue: "¥1100亿", MarketCap: "¥680亿", PERatio: "6.5"},
		},
		Sections: []model.Section{
			{Heading: "基本面分析", Content: "公司在省内市场占有率极高，新签合同额保持 8% 增速。但经营性现金流净额连续两个季度为负，需警惕流动性管理。资产负债率维持在高位，财务费用对利润侵蚀较大。"},
			{Heading: "估值判断", Content: "当前市盈率 (TTM) 仅为 3.8倍，低于行业平均水平。考虑到国企改革预期及高股息潜力（股息率约 4.8%），下行空间极其有限，属于典型的深度价值股。"},
		},
		ChartType: "bar",
		ChartData: []model.ChartPoint{
			{Name: "23 Q4", Value: 450},
			{Name: "24 Q1", Value: 380},
			{Name: "24 Q2", Value: 490},
			{Name: "24 Q3", Value: 510},
			{Name: "24 Q4 (E)", Value: 560},
		},
		KeyMetrics: []model.KeyMetric{
			{Label: "新签合同", Value: "¥3,200亿", Trend: "up"},
			{Label: "资产负债率", Value: "88.5%", Trend: "up"},
			{Label: "股息率", Value: "4.8%", Trend: "up"},
			{Label: "PB (市净率)", Value: "0.65", Trend: "neutral"},
		},
		Sources: []model.Source{
			{Title: "上海证券交易所", URI: "http://www.sse.com.cn"},
		},
		IsMock: true,
	}
}
