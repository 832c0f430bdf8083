// internal/dataprep/loader_test.go
package dataprep

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sales-insights/internal/common/errors"
	"sales-insights/internal/common/logger"
	"sales-insights/internal/models"
)

const validCSV = `Date,Revenue,Cost,Profit,Order_Quantity,Product,Product_Category,Customer_Age,Customer_Gender,Country,State
15/01/2013,100.00,60.00,40.00,1,Road Bike,Bikes,30,M,Germany,Bavaria
01/06/2015,200.50,120.25,80.25,2,Mountain Bike,Bikes,35,F,United States,Oregon
30/11/2016,300.00,180.00,120.00,3,Helmet,Accessories,25,female,Germany,Bavaria
`

func newLoader(t *testing.T) *Loader {
	t.Helper()
	return NewLoader("", logger.NewTestLogger(t))
}

func TestLoader_Load(t *testing.T) {
	records, report, err := newLoader(t).Load(strings.NewReader(validCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, "2013-01-15", report.MinDate.Format("2006-01-02"))
	assert.Equal(t, "2016-11-30", report.MaxDate.Format("2006-01-02"))

	require.Len(t, records, 3)
	first := records[0]
	assert.Equal(t, 100.00, first.Revenue)
	assert.Equal(t, 40.00, first.Profit)
	assert.Equal(t, "Road Bike", first.Product)
	assert.Equal(t, models.GenderMale, first.CustomerGender)

	// Spelled-out gender values normalize to the single-letter enum.
	assert.Equal(t, models.GenderFemale, records[2].CustomerGender)
}

func TestLoader_Load_ColumnOrderIrrelevant(t *testing.T) {
	reordered := `Product,Date,Revenue,Cost,Profit,Order_Quantity,Product_Category,Customer_Age,Customer_Gender,Country,State
Helmet,15/01/2013,100.00,60.00,40.00,1,Accessories,25,F,Germany,Bavaria
`
	records, _, err := newLoader(t).Load(strings.NewReader(reordered))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Helmet", records[0].Product)
}

func TestLoader_Load_MissingColumn(t *testing.T) {
	noProfit := `Date,Revenue,Cost,Order_Quantity,Product,Product_Category,Customer_Age,Customer_Gender,Country,State
15/01/2013,100.00,60.00,1,Road Bike,Bikes,30,M,Germany,Bavaria
`
	_, _, err := newLoader(t).Load(strings.NewReader(noProfit))
	require.Error(t, err)

	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDatasetCorrupted, stdErr.Code)
	assert.Contains(t, stdErr.Details, "Profit")
}

func TestLoader_Load_SkipsBadRows(t *testing.T) {
	mixed := `Date,Revenue,Cost,Profit,Order_Quantity,Product,Product_Category,Customer_Age,Customer_Gender,Country,State
15/01/2013,100.00,60.00,40.00,1,Road Bike,Bikes,30,M,Germany,Bavaria
not-a-date,100.00,60.00,40.00,1,Road Bike,Bikes,30,M,Germany,Bavaria
15/02/2013,abc,60.00,40.00,1,Road Bike,Bikes,30,M,Germany,Bavaria
15/03/2013,100.00,60.00,99.00,1,Road Bike,Bikes,30,M,Germany,Bavaria
`
	records, report, err := newLoader(t).Load(strings.NewReader(mixed))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Rows)
	assert.Equal(t, 3, report.Skipped, "bad date, bad revenue and violated profit identity are skipped")
	assert.Len(t, records, 1)
}

func TestLoader_Load_ProfitToleranceAbsorbsRounding(t *testing.T) {
	rounding := `Date,Revenue,Cost,Profit,Order_Quantity,Product,Product_Category,Customer_Age,Customer_Gender,Country,State
15/01/2013,100.00,60.00,40.01,1,Road Bike,Bikes,30,M,Germany,Bavaria
`
	records, _, err := newLoader(t).Load(strings.NewReader(rounding))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoader_Load_NoValidRows(t *testing.T) {
	empty := `Date,Revenue,Cost,Profit,Order_Quantity,Product,Product_Category,Customer_Age,Customer_Gender,Country,State
`
	_, _, err := newLoader(t).Load(strings.NewReader(empty))
	require.Error(t, err)

	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDatasetNotLoaded, stdErr.Code)
}

func TestLoader_LoadFile_Missing(t *testing.T) {
	_, _, err := newLoader(t).LoadFile("/nonexistent/sales.csv")
	require.Error(t, err)

	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDatasetNotLoaded, stdErr.Code)
	assert.False(t, stdErr.Recoverable)
}
