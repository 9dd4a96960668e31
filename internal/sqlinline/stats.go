package sqlinline

const QCountJobsByStatus = `--sql ad103440-089d-48ad-9bc0-64581f249a47
select status, count(*)
from generation_jobs
group by status;
`
